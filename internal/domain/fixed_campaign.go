package domain

import "time"

// GeoAll is the wildcard geo of a fixed campaign that accepts any target.
const GeoAll = "ALL"

// FixedCampaign is a pre-provisioned campaign on the external platform.
// The pool is managed by operators; this service only reads it.
type FixedCampaign struct {
	ID           int64
	CampaignID   string
	CampaignName string
	GeoTargeting string
	Priority     int
	Weight       int
	Active       bool
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
