package mappers

import (
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/models"
)

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	return &domain.Order{
		ID:           model.ID,
		ServiceID:    model.ServiceID,
		TargetViews:  model.TargetViews,
		GeoTargeting: model.GeoTargeting,
		ClipCreated:  model.ClipCreated,
		TargetURL:    model.TargetURL,
		OfferID:      model.OfferID,
		Coefficient:  model.Coefficient,
		Status:       model.Status,
		Recovery: domain.RecoveryState{
			RetryCount:     model.RetryCount,
			MaxRetries:     model.MaxRetries,
			LastErrorType:  domain.ErrorType(model.LastErrorType),
			FailureReason:  model.FailureReason,
			LastRetryAt:    model.LastRetryAt,
			NextRetryAt:    model.NextRetryAt,
			ManuallyFailed: model.ManuallyFailed,
			OperatorNotes:  model.OperatorNotes,
		},
		Version:   model.Version,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	return &models.OrderModel{
		ID:             order.ID,
		ServiceID:      order.ServiceID,
		TargetViews:    order.TargetViews,
		GeoTargeting:   order.GeoTargeting,
		ClipCreated:    order.ClipCreated,
		TargetURL:      order.TargetURL,
		OfferID:        order.OfferID,
		Coefficient:    order.Coefficient,
		Status:         order.Status,
		RetryCount:     order.Recovery.RetryCount,
		MaxRetries:     order.Recovery.MaxRetries,
		LastErrorType:  string(order.Recovery.LastErrorType),
		FailureReason:  order.Recovery.FailureReason,
		LastRetryAt:    order.Recovery.LastRetryAt,
		NextRetryAt:    order.Recovery.NextRetryAt,
		ManuallyFailed: order.Recovery.ManuallyFailed,
		OperatorNotes:  order.Recovery.OperatorNotes,
		Version:        order.Version,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}
