package recovery

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/kafka"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/metrics"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		cp := *o
		r.orders[o.ID] = &cp
	}
	return r
}

func (r *fakeOrderRepo) GetOrderByID(orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) CreateOrder(order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) UpdateOrder(order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return domain.ErrVersionConflict
	}
	cp := *order
	cp.Version++
	r.orders[order.ID] = &cp
	order.Version++
	return nil
}

func (r *fakeOrderRepo) FindOrdersReadyForRetry(time.Time, int) ([]*domain.Order, error) {
	return nil, nil
}

func (r *fakeOrderRepo) FindDeadLetteredOrders(int, int) ([]*domain.Order, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepo) CountFailedOrders() (int64, error)                { return 12, nil }
func (r *fakeOrderRepo) CountFailedOrdersSince(time.Time) (int64, error)  { return 4, nil }
func (r *fakeOrderRepo) CountDeadLetteredOrders() (int64, error)          { return 3, nil }
func (r *fakeOrderRepo) CountOrdersPendingRetry(time.Time) (int64, error) { return 2, nil }
func (r *fakeOrderRepo) GetErrorTypeCounts() ([]domain.ErrorTypeCount, error) {
	return []domain.ErrorTypeCount{{ErrorType: domain.ErrorTypeTimeout, Count: 3}}, nil
}

type fakeDeadLetterPublisher struct {
	mu     sync.Mutex
	events []kafka.DeadLetterEvent
}

func (p *fakeDeadLetterPublisher) PublishDeadLetter(_ string, event kafka.DeadLetterEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAudit) record(action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	return nil
}

func (a *fakeAudit) LogAssignmentCreated(context.Context, string, string, []string, int) error {
	return a.record("ASSIGNMENT_CREATED")
}

func (a *fakeAudit) LogAssignmentFailed(context.Context, string, string, string) error {
	return a.record("ASSIGNMENT_FAILED")
}

func (a *fakeAudit) LogOrderDeadLettered(context.Context, string, string, int) error {
	return a.record("ORDER_DEAD_LETTERED")
}

func (a *fakeAudit) LogCampaignAction(context.Context, string, string) error {
	return a.record("CAMPAIGN_ACTION")
}

func (a *fakeAudit) LogManualAction(_ context.Context, _, _, action, _ string) error {
	return a.record(action)
}

func processingOrder() *domain.Order {
	return &domain.Order{
		ID:          "order-1",
		ServiceID:   42,
		TargetViews: 1000,
		Status:      domain.StatusPending,
		Recovery:    domain.RecoveryState{MaxRetries: 3},
	}
}

func newTestEngine(repo *fakeOrderRepo) (*DefaultRecoveryEngine, *fakeDeadLetterPublisher, *fakeAudit) {
	publisher := &fakeDeadLetterPublisher{}
	audit := &fakeAudit{}
	engine := NewDefaultRecoveryEngine(
		repo,
		publisher,
		audit,
		metrics.NewDistributionMetricsWith(prometheus.NewRegistry()),
		Config{
			MaxRetries:      3,
			InitialDelay:    5 * time.Minute,
			MaxDelay:        24 * time.Hour,
			BackoffFactor:   2.0,
			DeadLetterTopic: "dead-letter-events",
		},
	)
	engine.jitter = func() float64 { return 0 }
	return engine, publisher, audit
}

func retryableErr() error {
	return domain.NewRetryableError(domain.ErrorTypeTimeout, fmt.Errorf("request timed out"))
}

func TestRecordFailureSchedulesRetryWithBackoff(t *testing.T) {
	repo := newFakeOrderRepo(processingOrder())
	engine, _, _ := newTestEngine(repo)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base }

	// First failure: 5m delay
	decision, err := engine.RecordFailure(context.Background(), "order-1", retryableErr())
	require.NoError(t, err)
	require.Equal(t, ActionRetryScheduled, decision.Action)
	require.Equal(t, 1, decision.RetryCount)
	require.Equal(t, base.Add(5*time.Minute), *decision.NextRetryAt)

	order, _ := repo.GetOrderByID("order-1")
	require.Equal(t, domain.StatusRetryScheduled, order.Status)
	require.Equal(t, domain.ErrorTypeTimeout, order.Recovery.LastErrorType)

	// Second failure: delay doubles
	decision, err = engine.RecordFailure(context.Background(), "order-1", retryableErr())
	require.NoError(t, err)
	require.Equal(t, ActionRetryScheduled, decision.Action)
	require.Equal(t, 2, decision.RetryCount)
	require.Equal(t, base.Add(10*time.Minute), *decision.NextRetryAt)
}

func TestRecordFailureDeadLettersOnMaxRetries(t *testing.T) {
	repo := newFakeOrderRepo(processingOrder())
	engine, publisher, audit := newTestEngine(repo)

	var decision *Decision
	var err error
	for i := 0; i < 3; i++ {
		decision, err = engine.RecordFailure(context.Background(), "order-1", retryableErr())
		require.NoError(t, err)
	}

	// The third retryable failure exhausts the budget.
	require.Equal(t, ActionDeadLettered, decision.Action)
	require.Equal(t, 3, decision.RetryCount)

	order, _ := repo.GetOrderByID("order-1")
	require.Equal(t, domain.StatusDeadLettered, order.Status)
	require.Nil(t, order.Recovery.NextRetryAt)
	require.False(t, order.Recovery.ManuallyFailed)

	require.Len(t, publisher.events, 1)
	require.Equal(t, "order-1", publisher.events[0].OrderID)
	require.Equal(t, string(domain.ErrorTypeTimeout), publisher.events[0].ErrorType)
	require.Contains(t, audit.actions, "ORDER_DEAD_LETTERED")
}

func TestRecordFailurePermanentErrorDeadLettersImmediately(t *testing.T) {
	repo := newFakeOrderRepo(processingOrder())
	engine, publisher, _ := newTestEngine(repo)

	cause := domain.NewPermanentError(domain.ErrorTypeValidation, fmt.Errorf("offer name rejected"))
	decision, err := engine.RecordFailure(context.Background(), "order-1", cause)
	require.NoError(t, err)
	require.Equal(t, ActionDeadLettered, decision.Action)

	// No retry attempt was burned.
	order, _ := repo.GetOrderByID("order-1")
	require.Equal(t, 0, order.Recovery.RetryCount)
	require.Equal(t, domain.StatusDeadLettered, order.Status)
	require.Len(t, publisher.events, 1)
}

func TestRecordFailureBackoffIsCapped(t *testing.T) {
	engine, _, _ := newTestEngine(newFakeOrderRepo())

	var prev time.Duration
	for count := 1; count <= 12; count++ {
		delay := engine.backoff(count)
		require.GreaterOrEqual(t, delay, prev, "backoff must not shrink")
		require.LessOrEqual(t, delay, 24*time.Hour)
		prev = delay
	}
	require.Equal(t, 24*time.Hour, engine.backoff(12))
}

func TestRecordFailureSkipsClosedOrders(t *testing.T) {
	order := processingOrder()
	order.Status = domain.StatusDeadLettered
	order.Recovery.ManuallyFailed = true
	repo := newFakeOrderRepo(order)
	engine, publisher, _ := newTestEngine(repo)

	decision, err := engine.RecordFailure(context.Background(), "order-1", retryableErr())
	require.NoError(t, err)
	require.Equal(t, ActionSkipped, decision.Action)
	require.Empty(t, publisher.events)
}

func TestRecordFailureSkipsNotAssignableCause(t *testing.T) {
	// Intake delivery is at-least-once. A duplicate trigger for an
	// order already being distributed surfaces as a not-assignable
	// failure and must not dead-letter the healthy order.
	order := processingOrder()
	order.Status = domain.StatusProcessing
	repo := newFakeOrderRepo(order)
	engine, publisher, audit := newTestEngine(repo)

	cause := fmt.Errorf("%w: order order-1 has status PROCESSING", domain.ErrOrderNotAssignable)
	decision, err := engine.RecordFailure(context.Background(), "order-1", cause)
	require.NoError(t, err)
	require.Equal(t, ActionSkipped, decision.Action)

	got, _ := repo.GetOrderByID("order-1")
	require.Equal(t, domain.StatusProcessing, got.Status)
	require.Equal(t, 0, got.Recovery.RetryCount)
	require.Empty(t, publisher.events)
	require.Empty(t, audit.actions)
}

func TestManualRetryRequeuesDeadLetteredOrder(t *testing.T) {
	order := processingOrder()
	order.Status = domain.StatusDeadLettered
	order.Recovery.RetryCount = 3
	order.Recovery.ManuallyFailed = true
	repo := newFakeOrderRepo(order)
	engine, _, audit := newTestEngine(repo)

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }

	err := engine.ManualRetry(context.Background(), "order-1", "ops@panel", "platform recovered", true)
	require.NoError(t, err)

	got, _ := repo.GetOrderByID("order-1")
	require.Equal(t, domain.StatusRetryScheduled, got.Status)
	require.False(t, got.Recovery.ManuallyFailed)
	require.Equal(t, 0, got.Recovery.RetryCount)
	require.Equal(t, now, *got.Recovery.NextRetryAt)
	require.Contains(t, audit.actions, "MANUAL_RETRY")
}

func TestManualRetryRejectsLiveOrder(t *testing.T) {
	repo := newFakeOrderRepo(processingOrder())
	engine, _, _ := newTestEngine(repo)

	err := engine.ManualRetry(context.Background(), "order-1", "ops@panel", "", false)
	require.Error(t, err)
}

func TestManualFailClosesOrderForGood(t *testing.T) {
	repo := newFakeOrderRepo(processingOrder())
	engine, publisher, audit := newTestEngine(repo)

	err := engine.ManualFail(context.Background(), "order-1", "ops@panel", "customer refund")
	require.NoError(t, err)

	order, _ := repo.GetOrderByID("order-1")
	require.Equal(t, domain.StatusDeadLettered, order.Status)
	require.True(t, order.Recovery.ManuallyFailed)
	require.Equal(t, "customer refund", order.Recovery.FailureReason)
	require.False(t, order.Assignable())

	require.Len(t, publisher.events, 1)
	require.True(t, publisher.events[0].ManuallyFailed)
	require.Contains(t, audit.actions, "MANUAL_FAIL")

	// Subsequent automatic failures are ignored.
	decision, err := engine.RecordFailure(context.Background(), "order-1", retryableErr())
	require.NoError(t, err)
	require.Equal(t, ActionSkipped, decision.Action)
}

func TestStatsAggregatesRepoCounters(t *testing.T) {
	engine, _, _ := newTestEngine(newFakeOrderRepo())

	stats, err := engine.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(12), stats.TotalFailed)
	require.Equal(t, int64(4), stats.FailedLast24h)
	require.Equal(t, int64(3), stats.DeadLettered)
	require.Equal(t, int64(2), stats.PendingRetries)
	require.Len(t, stats.ErrorBreakdown, 1)
}
