package repository

import (
	"errors"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/mappers"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultCoefficientRepository struct {
	DB *gorm.DB
}

func NewDefaultCoefficientRepository(db *gorm.DB) *DefaultCoefficientRepository {
	return &DefaultCoefficientRepository{DB: db}
}

func (r *DefaultCoefficientRepository) GetByServiceID(serviceID int64, withoutClip bool) (*domain.ConversionCoefficient, error) {
	var coefficientModel models.ConversionCoefficientModel
	err := r.DB.
		Where("service_id = ? AND without_clip = ?", serviceID, withoutClip).
		First(&coefficientModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Absence degrades to the configured default upstream.
			return nil, nil
		}
		return nil, err
	}

	return mappers.ToDomainCoefficient(&coefficientModel), nil
}
