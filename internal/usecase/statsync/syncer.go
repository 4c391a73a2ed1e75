package statsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/metrics"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/assignment"
)

const versionConflictRetries = 3

// MetricsSyncer pulls delivery stats from the platform into the assignment
// rows and completes orders whose whole campaign set met its quota.
type MetricsSyncer struct {
	assignmentRepo domain.AssignmentRepository
	orderRepo      domain.OrderRepository
	gateway        domain.AdPlatformGateway
	metrics        *metrics.DistributionMetrics
}

func NewMetricsSyncer(
	assignmentRepo domain.AssignmentRepository,
	orderRepo domain.OrderRepository,
	gateway domain.AdPlatformGateway,
	distributionMetrics *metrics.DistributionMetrics,
) *MetricsSyncer {
	return &MetricsSyncer{
		assignmentRepo: assignmentRepo,
		orderRepo:      orderRepo,
		gateway:        gateway,
		metrics:        distributionMetrics,
	}
}

// SyncAll refreshes every active assignment. One failing assignment never
// blocks the rest of the pass.
func (s *MetricsSyncer) SyncAll(ctx context.Context) {
	assignments, err := s.assignmentRepo.FindActive()
	if err != nil {
		slog.Error("failed to load active assignments for stats sync", "error", err.Error())
		return
	}

	byOrder := make(map[string][]*domain.CampaignAssignment)
	for _, a := range assignments {
		if err := s.SyncAssignment(ctx, a); err != nil {
			slog.Warn("stats sync failed for assignment",
				"assignment_id", a.ID,
				"order_id", a.OrderID,
				"campaign_id", a.CampaignID,
				"error", err.Error())
		}
		byOrder[a.OrderID] = append(byOrder[a.OrderID], a)
	}

	for orderID, set := range byOrder {
		s.maybeComplete(ctx, orderID, set)
	}
}

// SyncAssignment refreshes a single assignment. A stale snapshot means the
// platform was unreachable and the gateway served its cache; the persisted
// values are already current in that case, so nothing is written.
func (s *MetricsSyncer) SyncAssignment(ctx context.Context, a *domain.CampaignAssignment) error {
	stats, err := s.gateway.GetCampaignStats(ctx, a.CampaignID)
	if err != nil {
		s.metrics.StatsSyncTotal.WithLabelValues("error").Inc()
		return err
	}

	if stats.Stale {
		s.metrics.StatsSyncTotal.WithLabelValues("stale").Inc()
		s.metrics.StaleStatsTotal.Inc()
		return nil
	}

	a.ClicksDelivered = stats.Clicks
	a.Conversions = stats.Conversions
	a.Cost = stats.Cost
	a.Revenue = stats.Revenue

	if err := s.assignmentRepo.UpdateStats(a); err != nil {
		s.metrics.StatsSyncTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to persist stats for assignment %s: %w", a.ID, err)
	}

	s.metrics.StatsSyncTotal.WithLabelValues("success").Inc()
	s.metrics.ClicksDeliveredGauge.WithLabelValues(a.CampaignID).Set(float64(a.ClicksDelivered))
	return nil
}

// maybeComplete finishes the order once all three campaigns delivered
// their quota, then retires the assignment set from future sync passes.
func (s *MetricsSyncer) maybeComplete(ctx context.Context, orderID string, set []*domain.CampaignAssignment) {
	if len(set) != assignment.PoolSize {
		return
	}
	for _, a := range set {
		if !a.Delivered() {
			return
		}
	}

	if _, err := domain.MutateOrder(s.orderRepo, orderID, versionConflictRetries, func(o *domain.Order) error {
		if o.Status != domain.StatusProcessing {
			return fmt.Errorf("order %s is %s, not completing", o.ID, o.Status)
		}
		o.Status = domain.StatusCompleted
		return nil
	}); err != nil {
		slog.Warn("failed to complete delivered order", "order_id", orderID, "error", err.Error())
		return
	}

	if err := s.assignmentRepo.DeactivateByOrderID(orderID); err != nil {
		slog.Warn("failed to retire assignments of completed order", "order_id", orderID, "error", err.Error())
		return
	}

	slog.Info("order delivered in full", "order_id", orderID)
}
