package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending OrderStatus = "PENDING"
	// StatusDistributing marks an order claimed by one in-flight
	// assignment attempt. Claimed orders are not assignable, so
	// concurrent triggers for the same order cannot interleave.
	StatusDistributing   OrderStatus = "DISTRIBUTING"
	StatusProcessing     OrderStatus = "PROCESSING"
	StatusRetryScheduled OrderStatus = "RETRY_SCHEDULED"
	StatusCompleted      OrderStatus = "COMPLETED"
	StatusDeadLettered   OrderStatus = "DEAD_LETTERED"
)

// RecoveryState tracks the retry bookkeeping of one order. It is embedded
// in Order and mutated only by the recovery engine and the orchestrator.
type RecoveryState struct {
	RetryCount     int
	MaxRetries     int
	LastErrorType  ErrorType
	FailureReason  string
	LastRetryAt    *time.Time
	NextRetryAt    *time.Time
	ManuallyFailed bool
	OperatorNotes  string
}

type Order struct {
	ID           string
	ServiceID    int64
	TargetViews  int
	GeoTargeting string
	ClipCreated  bool
	TargetURL    string
	OfferID      string
	Coefficient  decimal.Decimal
	Status       OrderStatus
	Recovery     RecoveryState
	// Version is bumped on every successful write. Writers must pass the
	// version they read; a mismatch means a concurrent update won.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Assignable reports whether the order may enter campaign assignment.
func (o *Order) Assignable() bool {
	if o.Recovery.ManuallyFailed {
		return false
	}
	return o.Status == StatusPending || o.Status == StatusRetryScheduled
}
