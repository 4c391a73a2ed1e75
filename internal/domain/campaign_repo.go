package domain

type FixedCampaignRepository interface {
	// FindActiveByGeo returns up to limit active campaigns whose geo matches
	// geo or the ALL wildcard, ordered by priority ASC then weight DESC.
	FindActiveByGeo(geo string, limit int) ([]*FixedCampaign, error)

	// FindTopActive returns up to limit active campaigns regardless of geo,
	// ordered by weight DESC.
	FindTopActive(limit int) ([]*FixedCampaign, error)
}

type CoefficientRepository interface {
	// GetByServiceID looks up the coefficient for (serviceID, withoutClip).
	// Absence is reported as (nil, nil), not as an error.
	GetByServiceID(serviceID int64, withoutClip bool) (*ConversionCoefficient, error)
}

type AssignmentRepository interface {
	// Create persists one slot of an order's assignment set. The
	// orchestrator writes a slot only after its external assignment
	// succeeded and compensates with DeleteByOrderID on a later failure.
	Create(assignment *CampaignAssignment) error

	GetByOrderID(orderID string) ([]*CampaignAssignment, error)
	FindActive() ([]*CampaignAssignment, error)

	// UpdateStats writes delivered clicks, conversions, cost, revenue and
	// the last-synced timestamp.
	UpdateStats(assignment *CampaignAssignment) error

	// DeactivateByOrderID flips the order's assignments inactive. Used by
	// stop/pause handling; rows are never deleted once an order succeeded.
	DeactivateByOrderID(orderID string) error

	// DeleteByOrderID removes assignment rows. Only used as compensation
	// when the three-campaign assignment failed part-way.
	DeleteByOrderID(orderID string) error
}
