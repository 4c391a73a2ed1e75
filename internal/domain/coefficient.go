package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConversionCoefficient converts target views into required clicks for one
// service, in its clip and no-clip variants. Updated by operators.
type ConversionCoefficient struct {
	ID          int64
	ServiceID   int64
	Coefficient decimal.Decimal
	WithoutClip bool
	UpdatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
