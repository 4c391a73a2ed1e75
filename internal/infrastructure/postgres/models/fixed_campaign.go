package models

import "time"

type FixedCampaignModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	CampaignID   string `gorm:"uniqueIndex;not null"`
	CampaignName string `gorm:"not null"`
	GeoTargeting string `gorm:"index:idx_geo_active"`
	Priority     int    `gorm:"default:1"`
	Weight       int    `gorm:"default:100"`
	Active       bool   `gorm:"index:idx_geo_active;default:true"`
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
