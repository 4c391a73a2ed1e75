package mappers

import (
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/models"
)

func ToDomainFixedCampaign(model *models.FixedCampaignModel) *domain.FixedCampaign {
	return &domain.FixedCampaign{
		ID:           model.ID,
		CampaignID:   model.CampaignID,
		CampaignName: model.CampaignName,
		GeoTargeting: model.GeoTargeting,
		Priority:     model.Priority,
		Weight:       model.Weight,
		Active:       model.Active,
		Description:  model.Description,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func ToDomainAssignment(model *models.CampaignAssignmentModel) *domain.CampaignAssignment {
	return &domain.CampaignAssignment{
		ID:              model.ID,
		OrderID:         model.OrderID,
		CampaignID:      model.CampaignID,
		OfferID:         model.OfferID,
		ClicksRequired:  model.ClicksRequired,
		ClicksDelivered: model.ClicksDelivered,
		Conversions:     model.Conversions,
		Cost:            model.Cost,
		Revenue:         model.Revenue,
		Coefficient:     model.Coefficient,
		Active:          model.Active,
		LastStatsUpdate: model.LastStatsUpdate,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func ToGORMAssignment(assignment *domain.CampaignAssignment) *models.CampaignAssignmentModel {
	return &models.CampaignAssignmentModel{
		ID:              assignment.ID,
		OrderID:         assignment.OrderID,
		CampaignID:      assignment.CampaignID,
		OfferID:         assignment.OfferID,
		ClicksRequired:  assignment.ClicksRequired,
		ClicksDelivered: assignment.ClicksDelivered,
		Conversions:     assignment.Conversions,
		Cost:            assignment.Cost,
		Revenue:         assignment.Revenue,
		Coefficient:     assignment.Coefficient,
		Active:          assignment.Active,
		LastStatsUpdate: assignment.LastStatsUpdate,
		CreatedAt:       assignment.CreatedAt,
		UpdatedAt:       assignment.UpdatedAt,
	}
}

func ToDomainCoefficient(model *models.ConversionCoefficientModel) *domain.ConversionCoefficient {
	return &domain.ConversionCoefficient{
		ID:          model.ID,
		ServiceID:   model.ServiceID,
		Coefficient: model.Coefficient,
		WithoutClip: model.WithoutClip,
		UpdatedBy:   model.UpdatedBy,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
