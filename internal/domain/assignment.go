package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignAssignment is one order's share on one fixed campaign. A
// successfully assigned order owns exactly three of these, and the sum of
// their ClicksRequired equals ceil(targetViews * coefficient).
type CampaignAssignment struct {
	ID              string
	OrderID         string
	CampaignID      string
	OfferID         string
	ClicksRequired  int
	ClicksDelivered int
	Conversions     int
	Cost            decimal.Decimal
	Revenue         decimal.Decimal
	Coefficient     decimal.Decimal
	Active          bool
	LastStatsUpdate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Delivered reports whether the campaign met its click quota.
func (a *CampaignAssignment) Delivered() bool {
	return a.ClicksDelivered >= a.ClicksRequired
}

// CampaignStats is a stats snapshot for one external campaign. Stale marks
// a value served from cache because the platform was unreachable.
type CampaignStats struct {
	Clicks      int
	Conversions int
	Cost        decimal.Decimal
	Revenue     decimal.Decimal
	Stale       bool
}
