package domain

import "time"

// ErrorTypeCount is one row of the dead-letter dashboard breakdown.
type ErrorTypeCount struct {
	ErrorType ErrorType
	Count     int64
}

// RecoveryStats aggregates failure counters for operational dashboards.
// Reporting only, no effect on the retry state machine.
type RecoveryStats struct {
	TotalFailed    int64
	FailedLast24h  int64
	DeadLettered   int64
	PendingRetries int64
	ErrorBreakdown []ErrorTypeCount
}

type OrderRepository interface {
	GetOrderByID(orderID string) (*Order, error)
	CreateOrder(order *Order) error

	// UpdateOrder performs a conditional write against order.Version and
	// returns ErrVersionConflict when zero rows matched. On success the
	// order's version is incremented in place.
	UpdateOrder(order *Order) error

	FindOrdersReadyForRetry(now time.Time, limit int) ([]*Order, error)
	FindDeadLetteredOrders(page, limit int) ([]*Order, int64, error)

	CountFailedOrders() (int64, error)
	CountFailedOrdersSince(since time.Time) (int64, error)
	CountDeadLetteredOrders() (int64, error)
	CountOrdersPendingRetry(now time.Time) (int64, error)
	GetErrorTypeCounts() ([]ErrorTypeCount, error)
}
