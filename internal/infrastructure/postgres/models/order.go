package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
)

type OrderModel struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	ServiceID      int64  `gorm:"index:idx_service"`
	TargetViews    int
	GeoTargeting   string
	ClipCreated    bool
	TargetURL      string
	OfferID        string             `gorm:"index:idx_offer"`
	Coefficient    decimal.Decimal    `gorm:"type:numeric(6,2)"`
	Status         domain.OrderStatus `gorm:"index:idx_status_retry"`
	RetryCount     int
	MaxRetries     int
	LastErrorType  string
	FailureReason  string `gorm:"type:text"`
	LastRetryAt    *time.Time
	NextRetryAt    *time.Time `gorm:"index:idx_status_retry"`
	ManuallyFailed bool
	OperatorNotes  string `gorm:"type:text"`
	Version        int64  `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
