package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/kafka"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/logger"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/metrics"
)

const versionConflictRetries = 3

type Action string

const (
	ActionRetryScheduled Action = "RETRY_SCHEDULED"
	ActionDeadLettered   Action = "DEAD_LETTERED"
	ActionSkipped        Action = "SKIPPED"
)

// Decision reports what the engine did with a failed order.
type Decision struct {
	Action      Action
	ErrorType   domain.ErrorType
	RetryCount  int
	NextRetryAt *time.Time
}

type Config struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	DeadLetterTopic string
}

type Engine interface {
	RecordFailure(ctx context.Context, orderID string, cause error) (*Decision, error)
	ManualRetry(ctx context.Context, orderID, operator, notes string, resetRetryCount bool) error
	ManualFail(ctx context.Context, orderID, operator, reason string) error
	Stats(ctx context.Context) (*domain.RecoveryStats, error)
}

// DeadLetterPublisher is the slice of the message bus the engine needs.
type DeadLetterPublisher interface {
	PublishDeadLetter(topic string, event kafka.DeadLetterEvent) error
}

// errAlreadyTerminal short-circuits failure recording for orders an
// operator already closed.
var errAlreadyTerminal = errors.New("order already in a terminal state")

type DefaultRecoveryEngine struct {
	orderRepo domain.OrderRepository
	publisher DeadLetterPublisher
	audit     logger.AuditLogger
	metrics   *metrics.DistributionMetrics
	cfg       Config

	now    func() time.Time
	jitter func() float64
}

func NewDefaultRecoveryEngine(
	orderRepo domain.OrderRepository,
	publisher DeadLetterPublisher,
	audit logger.AuditLogger,
	distributionMetrics *metrics.DistributionMetrics,
	cfg Config,
) *DefaultRecoveryEngine {
	return &DefaultRecoveryEngine{
		orderRepo: orderRepo,
		publisher: publisher,
		audit:     audit,
		metrics:   distributionMetrics,
		cfg:       cfg,
		now:       time.Now,
		jitter:    rand.Float64,
	}
}

// RecordFailure classifies the cause and moves the order to either a
// scheduled retry or the dead-letter state. Permanent failures dead-letter
// immediately; retryable ones burn one attempt of the order's budget.
func (e *DefaultRecoveryEngine) RecordFailure(ctx context.Context, orderID string, cause error) (*Decision, error) {
	classified := domain.Classify(cause)

	// A not-assignable outcome means the order is already distributed,
	// claimed by another attempt, or closed. Intake delivery is
	// at-least-once, so duplicate triggers land here; punishing the
	// order would dead-letter healthy work.
	if errors.Is(cause, domain.ErrOrderNotAssignable) {
		slog.Info("ignoring trigger for order not awaiting assignment",
			"order_id", orderID, "reason", cause.Error())
		return &Decision{Action: ActionSkipped, ErrorType: classified.Type}, nil
	}

	var decision Decision
	order, err := domain.MutateOrder(e.orderRepo, orderID, versionConflictRetries, func(o *domain.Order) error {
		if o.Recovery.ManuallyFailed || o.Status == domain.StatusDeadLettered || o.Status == domain.StatusCompleted {
			return errAlreadyTerminal
		}

		now := e.now()
		o.Recovery.LastErrorType = classified.Type
		o.Recovery.FailureReason = cause.Error()
		o.Recovery.LastRetryAt = &now

		maxRetries := o.Recovery.MaxRetries
		if maxRetries <= 0 {
			maxRetries = e.cfg.MaxRetries
			o.Recovery.MaxRetries = maxRetries
		}

		if !classified.Retryable {
			o.Status = domain.StatusDeadLettered
			o.Recovery.NextRetryAt = nil
			decision = Decision{Action: ActionDeadLettered, ErrorType: classified.Type, RetryCount: o.Recovery.RetryCount}
			return nil
		}

		o.Recovery.RetryCount++
		if o.Recovery.RetryCount >= maxRetries {
			o.Status = domain.StatusDeadLettered
			o.Recovery.NextRetryAt = nil
			decision = Decision{Action: ActionDeadLettered, ErrorType: classified.Type, RetryCount: o.Recovery.RetryCount}
			return nil
		}

		next := now.Add(e.backoff(o.Recovery.RetryCount))
		o.Status = domain.StatusRetryScheduled
		o.Recovery.NextRetryAt = &next
		decision = Decision{Action: ActionRetryScheduled, ErrorType: classified.Type, RetryCount: o.Recovery.RetryCount, NextRetryAt: &next}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadyTerminal) {
			slog.Info("ignoring failure for closed order", "order_id", orderID, "error_type", classified.Type)
			return &Decision{Action: ActionSkipped, ErrorType: classified.Type}, nil
		}
		return nil, fmt.Errorf("failed to record failure for order %s: %w", orderID, err)
	}

	switch decision.Action {
	case ActionDeadLettered:
		e.metrics.DeadLetteredTotal.WithLabelValues(string(classified.Type)).Inc()
		e.deadLetter(ctx, order, false)
		slog.Error("order dead-lettered",
			"order_id", orderID,
			"error_type", classified.Type,
			"retry_count", decision.RetryCount,
			"reason", cause.Error())
	case ActionRetryScheduled:
		e.metrics.RetriesScheduledTotal.WithLabelValues(string(classified.Type)).Inc()
		slog.Warn("retry scheduled",
			"order_id", orderID,
			"error_type", classified.Type,
			"retry_count", decision.RetryCount,
			"next_retry_at", decision.NextRetryAt)
	}
	return &decision, nil
}

// ManualRetry pulls a dead-lettered order back into the retry pipeline.
// The order becomes due immediately.
func (e *DefaultRecoveryEngine) ManualRetry(ctx context.Context, orderID, operator, notes string, resetRetryCount bool) error {
	_, err := domain.MutateOrder(e.orderRepo, orderID, versionConflictRetries, func(o *domain.Order) error {
		if o.Status != domain.StatusDeadLettered {
			return fmt.Errorf("order %s is not dead-lettered, status is %s", o.ID, o.Status)
		}
		now := e.now()
		o.Status = domain.StatusRetryScheduled
		o.Recovery.ManuallyFailed = false
		o.Recovery.NextRetryAt = &now
		o.Recovery.OperatorNotes = notes
		if resetRetryCount {
			o.Recovery.RetryCount = 0
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.metrics.ManualRetriesTotal.Inc()
	if auditErr := e.audit.LogManualAction(ctx, orderID, operator, "MANUAL_RETRY", notes); auditErr != nil {
		slog.Warn("failed to write manual-retry audit record", "order_id", orderID, "error", auditErr.Error())
	}
	slog.Info("order manually requeued", "order_id", orderID, "operator", operator, "reset_count", resetRetryCount)
	return nil
}

// ManualFail closes an order for good. The flag it sets excludes the order
// from every automatic retry path.
func (e *DefaultRecoveryEngine) ManualFail(ctx context.Context, orderID, operator, reason string) error {
	order, err := domain.MutateOrder(e.orderRepo, orderID, versionConflictRetries, func(o *domain.Order) error {
		o.Status = domain.StatusDeadLettered
		o.Recovery.ManuallyFailed = true
		o.Recovery.FailureReason = reason
		o.Recovery.NextRetryAt = nil
		o.Recovery.OperatorNotes = reason
		return nil
	})
	if err != nil {
		return err
	}

	e.metrics.ManualFailsTotal.Inc()
	e.deadLetter(ctx, order, true)
	if auditErr := e.audit.LogManualAction(ctx, orderID, operator, "MANUAL_FAIL", reason); auditErr != nil {
		slog.Warn("failed to write manual-fail audit record", "order_id", orderID, "error", auditErr.Error())
	}
	slog.Info("order manually failed", "order_id", orderID, "operator", operator, "reason", reason)
	return nil
}

// Stats assembles the failure dashboard counters.
func (e *DefaultRecoveryEngine) Stats(ctx context.Context) (*domain.RecoveryStats, error) {
	totalFailed, err := e.orderRepo.CountFailedOrders()
	if err != nil {
		return nil, fmt.Errorf("failed to count failed orders: %w", err)
	}
	failedLast24h, err := e.orderRepo.CountFailedOrdersSince(e.now().Add(-24 * time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to count recent failures: %w", err)
	}
	deadLettered, err := e.orderRepo.CountDeadLetteredOrders()
	if err != nil {
		return nil, fmt.Errorf("failed to count dead-lettered orders: %w", err)
	}
	pendingRetries, err := e.orderRepo.CountOrdersPendingRetry(e.now())
	if err != nil {
		return nil, fmt.Errorf("failed to count pending retries: %w", err)
	}
	breakdown, err := e.orderRepo.GetErrorTypeCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to build error breakdown: %w", err)
	}

	return &domain.RecoveryStats{
		TotalFailed:    totalFailed,
		FailedLast24h:  failedLast24h,
		DeadLettered:   deadLettered,
		PendingRetries: pendingRetries,
		ErrorBreakdown: breakdown,
	}, nil
}

// backoff computes the delay before the given retry attempt. Exponential
// growth from the initial delay, capped, with up to 10% jitter so
// simultaneously failed orders do not retry in lockstep.
func (e *DefaultRecoveryEngine) backoff(retryCount int) time.Duration {
	delay := float64(e.cfg.InitialDelay) * math.Pow(e.cfg.BackoffFactor, float64(retryCount-1))
	delay += delay * 0.1 * e.jitter()

	capped := time.Duration(delay)
	if capped > e.cfg.MaxDelay {
		capped = e.cfg.MaxDelay
	}
	return capped
}

func (e *DefaultRecoveryEngine) deadLetter(ctx context.Context, order *domain.Order, manual bool) {
	if auditErr := e.audit.LogOrderDeadLettered(ctx, order.ID, order.Recovery.FailureReason, order.Recovery.RetryCount); auditErr != nil {
		slog.Warn("failed to write dead-letter audit record", "order_id", order.ID, "error", auditErr.Error())
	}

	event := kafka.DeadLetterEvent{
		OrderID:        order.ID,
		ErrorType:      string(order.Recovery.LastErrorType),
		FailureReason:  order.Recovery.FailureReason,
		RetryCount:     order.Recovery.RetryCount,
		ManuallyFailed: manual,
		Timestamp:      e.now(),
	}
	if err := e.publisher.PublishDeadLetter(e.cfg.DeadLetterTopic, event); err != nil {
		slog.Error("failed to publish dead-letter event", "order_id", order.ID, "error", err.Error())
	}
}
