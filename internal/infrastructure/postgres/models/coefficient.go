package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ConversionCoefficientModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	ServiceID   int64           `gorm:"uniqueIndex:idx_service_variant;not null"`
	Coefficient decimal.Decimal `gorm:"type:numeric(4,2);not null"`
	WithoutClip bool            `gorm:"uniqueIndex:idx_service_variant;not null"`
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
