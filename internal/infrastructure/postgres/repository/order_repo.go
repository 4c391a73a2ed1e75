package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/mappers"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) CreateOrder(order *domain.Order) error {
	orderModel := mappers.ToGORMOrder(order)
	if err := r.DB.Create(orderModel).Error; err != nil {
		return err
	}
	return nil
}

func (r *DefaultOrderRepository) GetOrderByID(orderID string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	return mappers.ToDomainOrder(&order), nil
}

// UpdateOrder is a conditional write: rows are matched by (id, version) and
// the version is bumped in the same statement. Zero rows affected means a
// concurrent writer won and the caller must re-read and redo the whole
// business operation.
func (r *DefaultOrderRepository) UpdateOrder(order *domain.Order) error {
	expectedVersion := order.Version
	orderModel := mappers.ToGORMOrder(order)
	orderModel.Version = expectedVersion + 1
	orderModel.UpdatedAt = time.Now()

	res := r.DB.Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(orderModel)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %s at version %d", domain.ErrVersionConflict, order.ID, expectedVersion)
	}

	order.Version = expectedVersion + 1
	return nil
}

func (r *DefaultOrderRepository) FindOrdersReadyForRetry(now time.Time, limit int) ([]*domain.Order, error) {
	var orderModels []models.OrderModel
	if err := r.DB.
		Where("status = ?", domain.StatusRetryScheduled).
		Where("next_retry_at IS NOT NULL AND next_retry_at <= ?", now).
		Where("manually_failed = ?", false).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, len(orderModels))
	for i, orderModel := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModel)
	}

	return orders, nil
}

func (r *DefaultOrderRepository) FindDeadLetteredOrders(page, limit int) ([]*domain.Order, int64, error) {
	var total int64
	if err := r.DB.Model(&models.OrderModel{}).
		Where("status = ?", domain.StatusDeadLettered).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count dead-lettered orders: %w", err)
	}

	offset := (page - 1) * limit
	var orderModels []models.OrderModel
	if err := r.DB.
		Where("status = ?", domain.StatusDeadLettered).
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orderModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find dead-lettered orders: %w", err)
	}

	orders := make([]*domain.Order, len(orderModels))
	for i, orderModel := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModel)
	}

	return orders, total, nil
}

func (r *DefaultOrderRepository) CountFailedOrders() (int64, error) {
	var total int64
	err := r.DB.Model(&models.OrderModel{}).
		Where("retry_count > 0 OR status = ?", domain.StatusDeadLettered).
		Count(&total).Error
	return total, err
}

func (r *DefaultOrderRepository) CountFailedOrdersSince(since time.Time) (int64, error) {
	var total int64
	err := r.DB.Model(&models.OrderModel{}).
		Where("retry_count > 0 OR status = ?", domain.StatusDeadLettered).
		Where("last_retry_at >= ?", since).
		Count(&total).Error
	return total, err
}

func (r *DefaultOrderRepository) CountDeadLetteredOrders() (int64, error) {
	var total int64
	err := r.DB.Model(&models.OrderModel{}).
		Where("status = ?", domain.StatusDeadLettered).
		Count(&total).Error
	return total, err
}

func (r *DefaultOrderRepository) CountOrdersPendingRetry(now time.Time) (int64, error) {
	var total int64
	err := r.DB.Model(&models.OrderModel{}).
		Where("status = ?", domain.StatusRetryScheduled).
		Where("next_retry_at IS NOT NULL AND next_retry_at > ?", now).
		Where("manually_failed = ?", false).
		Count(&total).Error
	return total, err
}

func (r *DefaultOrderRepository) GetErrorTypeCounts() ([]domain.ErrorTypeCount, error) {
	type row struct {
		LastErrorType string
		Count         int64
	}
	var rows []row
	if err := r.DB.Model(&models.OrderModel{}).
		Select("last_error_type, COUNT(*) as count").
		Where("last_error_type <> ''").
		Group("last_error_type").
		Order("count DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error type aggregation: %w", err)
	}

	counts := make([]domain.ErrorTypeCount, len(rows))
	for i, r := range rows {
		counts[i] = domain.ErrorTypeCount{
			ErrorType: domain.ErrorType(r.LastErrorType),
			Count:     r.Count,
		}
	}

	return counts, nil
}
