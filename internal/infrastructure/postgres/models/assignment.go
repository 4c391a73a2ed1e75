package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CampaignAssignmentModel struct {
	ID              string `gorm:"primaryKey;type:uuid"`
	OrderID         string `gorm:"type:uuid;index:idx_assignment_order;not null"`
	CampaignID      string `gorm:"index:idx_assignment_campaign;not null"`
	OfferID         string `gorm:"not null"`
	ClicksRequired  int    `gorm:"not null"`
	ClicksDelivered int
	Conversions     int
	Cost            decimal.Decimal `gorm:"type:numeric(10,2)"`
	Revenue         decimal.Decimal `gorm:"type:numeric(10,2)"`
	Coefficient     decimal.Decimal `gorm:"type:numeric(6,2)"`
	Active          bool            `gorm:"index:idx_assignment_active"`
	LastStatsUpdate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
