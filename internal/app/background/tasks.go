package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/assignment"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/recovery"
	"github.com/smmpanel/campaign-distribution-service/internal/usecase/statsync"
)

// retryBatchSize caps how many due orders one scan pass picks up.
const retryBatchSize = 100

// StartRetryScanner polls for orders whose retry is due and replays them
// through the orchestrator on a bounded worker pool. A replay that fails
// again goes straight back to the recovery engine.
func StartRetryScanner(
	ctx context.Context,
	orderRepo domain.OrderRepository,
	usecase assignment.Usecase,
	engine recovery.Engine,
	interval time.Duration,
	workers int,
) {
	jobs := make(chan *domain.Order)

	for i := 0; i < workers; i++ {
		go retryWorker(ctx, jobs, usecase, engine)
	}

	go func() {
		defer close(jobs)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				orders, err := orderRepo.FindOrdersReadyForRetry(time.Now(), retryBatchSize)
				if err != nil {
					slog.Error("retry scan failed", "error", err.Error())
					continue
				}
				if len(orders) > 0 {
					slog.Info("retry scan picked up due orders", "count", len(orders))
				}

				for _, order := range orders {
					select {
					case jobs <- order:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
}

func retryWorker(ctx context.Context, jobs <-chan *domain.Order, usecase assignment.Usecase, engine recovery.Engine) {
	for order := range jobs {
		input := &assignment.Input{
			OrderID:      order.ID,
			ServiceID:    order.ServiceID,
			TargetViews:  order.TargetViews,
			GeoTargeting: order.GeoTargeting,
			ClipCreated:  order.ClipCreated,
			TargetURL:    order.TargetURL,
		}

		if err := usecase.Assign(ctx, input); err != nil {
			if _, recErr := engine.RecordFailure(ctx, order.ID, err); recErr != nil {
				slog.Error("failed to record retry failure",
					"order_id", order.ID, "error", recErr.Error())
			}
		}
	}
}

// StartStatsSync periodically refreshes delivery stats for all active
// assignments and completes fully delivered orders.
func StartStatsSync(ctx context.Context, syncer *statsync.MetricsSyncer, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				syncer.SyncAll(ctx)
			}
		}
	}()
}
