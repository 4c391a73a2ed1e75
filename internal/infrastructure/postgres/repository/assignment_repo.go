package repository

import (
	"fmt"
	"time"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/mappers"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultAssignmentRepository struct {
	DB *gorm.DB
}

func NewDefaultAssignmentRepository(db *gorm.DB) *DefaultAssignmentRepository {
	return &DefaultAssignmentRepository{DB: db}
}

func (r *DefaultAssignmentRepository) Create(assignment *domain.CampaignAssignment) error {
	assignmentModel := mappers.ToGORMAssignment(assignment)
	if err := r.DB.Create(assignmentModel).Error; err != nil {
		return fmt.Errorf("failed to persist assignment for campaign %s: %w",
			assignmentModel.CampaignID, err)
	}
	return nil
}

func (r *DefaultAssignmentRepository) GetByOrderID(orderID string) ([]*domain.CampaignAssignment, error) {
	var assignmentModels []models.CampaignAssignmentModel
	if err := r.DB.
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&assignmentModels).Error; err != nil {
		return nil, err
	}

	return toDomainAssignments(assignmentModels), nil
}

func (r *DefaultAssignmentRepository) FindActive() ([]*domain.CampaignAssignment, error) {
	var assignmentModels []models.CampaignAssignmentModel
	if err := r.DB.
		Where("active = ?", true).
		Find(&assignmentModels).Error; err != nil {
		return nil, err
	}

	return toDomainAssignments(assignmentModels), nil
}

func (r *DefaultAssignmentRepository) UpdateStats(assignment *domain.CampaignAssignment) error {
	now := time.Now()
	return r.DB.Model(&models.CampaignAssignmentModel{}).
		Where("id = ?", assignment.ID).
		Updates(map[string]interface{}{
			"clicks_delivered":  assignment.ClicksDelivered,
			"conversions":       assignment.Conversions,
			"cost":              assignment.Cost,
			"revenue":           assignment.Revenue,
			"last_stats_update": now,
			"updated_at":        now,
		}).Error
}

func (r *DefaultAssignmentRepository) DeactivateByOrderID(orderID string) error {
	return r.DB.Model(&models.CampaignAssignmentModel{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now(),
		}).Error
}

func (r *DefaultAssignmentRepository) DeleteByOrderID(orderID string) error {
	return r.DB.
		Where("order_id = ?", orderID).
		Delete(&models.CampaignAssignmentModel{}).Error
}

func toDomainAssignments(assignmentModels []models.CampaignAssignmentModel) []*domain.CampaignAssignment {
	assignments := make([]*domain.CampaignAssignment, len(assignmentModels))
	for i, assignmentModel := range assignmentModels {
		assignments[i] = mappers.ToDomainAssignment(&assignmentModel)
	}
	return assignments
}
