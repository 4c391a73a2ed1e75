package kafka

import "time"

// OrderReadyEvent arrives from the order-intake flow once an order is paid
// and ready for campaign distribution.
type OrderReadyEvent struct {
	OrderID      string `json:"order_id"`
	ServiceID    int64  `json:"service_id"`
	TargetViews  int    `json:"target_views"`
	GeoTargeting string `json:"geo_targeting"`
	ClipCreated  bool   `json:"clip_created"`
	TargetURL    string `json:"target_url"`
}

// AssignmentEvent is emitted after every orchestration attempt.
type AssignmentEvent struct {
	OrderID     string    `json:"order_id"`
	OfferID     string    `json:"offer_id,omitempty"`
	CampaignIDs []string  `json:"campaign_ids,omitempty"`
	TotalClicks int       `json:"total_clicks,omitempty"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// DeadLetterEvent is emitted when the recovery engine gives up on an order.
type DeadLetterEvent struct {
	OrderID        string    `json:"order_id"`
	ErrorType      string    `json:"error_type"`
	FailureReason  string    `json:"failure_reason"`
	RetryCount     int       `json:"retry_count"`
	ManuallyFailed bool      `json:"manually_failed"`
	Timestamp      time.Time `json:"timestamp"`
}
