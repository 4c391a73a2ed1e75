package repository

import (
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/mappers"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultFixedCampaignRepository struct {
	DB *gorm.DB
}

func NewDefaultFixedCampaignRepository(db *gorm.DB) *DefaultFixedCampaignRepository {
	return &DefaultFixedCampaignRepository{DB: db}
}

func (r *DefaultFixedCampaignRepository) FindActiveByGeo(geo string, limit int) ([]*domain.FixedCampaign, error) {
	var campaignModels []models.FixedCampaignModel
	if err := r.DB.
		Where("active = ?", true).
		Where("geo_targeting = ? OR geo_targeting = ?", geo, domain.GeoAll).
		Order("priority ASC, weight DESC").
		Limit(limit).
		Find(&campaignModels).Error; err != nil {
		return nil, err
	}

	return toDomainCampaigns(campaignModels), nil
}

func (r *DefaultFixedCampaignRepository) FindTopActive(limit int) ([]*domain.FixedCampaign, error) {
	var campaignModels []models.FixedCampaignModel
	if err := r.DB.
		Where("active = ?", true).
		Order("weight DESC").
		Limit(limit).
		Find(&campaignModels).Error; err != nil {
		return nil, err
	}

	return toDomainCampaigns(campaignModels), nil
}

func toDomainCampaigns(campaignModels []models.FixedCampaignModel) []*domain.FixedCampaign {
	campaigns := make([]*domain.FixedCampaign, len(campaignModels))
	for i, campaignModel := range campaignModels {
		campaigns[i] = mappers.ToDomainFixedCampaign(&campaignModel)
	}
	return campaigns
}
