package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/kafka"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/logger"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/metrics"
)

// versionConflictRetries bounds the re-read loop on the order row. This is
// independent of the order's delivery retry budget.
const versionConflictRetries = 3

const offerNamePrefix = "SMM-Order"

const (
	EventStatusAssigned = "ASSIGNED"
	EventStatusFailed   = "FAILED"
)

// Input is the distribution request, normally decoded from an intake
// event. The order row is authoritative once it exists; input fields are
// used to materialize an order seen for the first time.
type Input struct {
	OrderID      string
	ServiceID    int64
	TargetViews  int
	GeoTargeting string
	ClipCreated  bool
	TargetURL    string
}

type Usecase interface {
	Assign(ctx context.Context, input *Input) error
}

// EventPublisher is the slice of the message bus the orchestrator needs.
type EventPublisher interface {
	PublishAssignment(topic string, event kafka.AssignmentEvent) error
}

type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	AssignmentTopic string
}

type DefaultAssignmentUsecase struct {
	orderRepo      domain.OrderRepository
	assignmentRepo domain.AssignmentRepository
	resolver       *CoefficientResolver
	selector       *CampaignPoolSelector
	gateway        domain.AdPlatformGateway
	publisher      EventPublisher
	audit          logger.AuditLogger
	metrics        *metrics.DistributionMetrics
	cfg            Config
}

func NewDefaultAssignmentUsecase(
	orderRepo domain.OrderRepository,
	assignmentRepo domain.AssignmentRepository,
	resolver *CoefficientResolver,
	selector *CampaignPoolSelector,
	gateway domain.AdPlatformGateway,
	publisher EventPublisher,
	audit logger.AuditLogger,
	distributionMetrics *metrics.DistributionMetrics,
	cfg Config,
) *DefaultAssignmentUsecase {
	return &DefaultAssignmentUsecase{
		orderRepo:      orderRepo,
		assignmentRepo: assignmentRepo,
		resolver:       resolver,
		selector:       selector,
		gateway:        gateway,
		publisher:      publisher,
		audit:          audit,
		metrics:        distributionMetrics,
		cfg:            cfg,
	}
}

// Assign distributes one order across the fixed campaign pool. On any
// failure the partially created assignment set is compensated away, so the
// attempt can be replayed from scratch by the retry pipeline.
func (uc *DefaultAssignmentUsecase) Assign(ctx context.Context, input *Input) error {
	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := uc.assign(ctx, input)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	uc.metrics.AssignmentDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		classified := domain.Classify(err)
		uc.metrics.AssignmentsFailedTotal.WithLabelValues(string(classified.Type)).Inc()
		if auditErr := uc.audit.LogAssignmentFailed(context.Background(), input.OrderID, string(classified.Type), err.Error()); auditErr != nil {
			slog.Warn("failed to write assignment audit record",
				"order_id", input.OrderID, "error", auditErr.Error())
		}
		uc.publishOutcome(kafka.AssignmentEvent{
			OrderID:   input.OrderID,
			Status:    EventStatusFailed,
			Reason:    err.Error(),
			Timestamp: time.Now(),
		})
	}
	return err
}

func (uc *DefaultAssignmentUsecase) assign(ctx context.Context, input *Input) error {
	order, err := uc.resolveOrder(input)
	if err != nil {
		return err
	}

	// Claim the order before touching the platform. A concurrent trigger
	// for the same order (duplicate intake delivery, overlapping retry
	// scan) loses the claim instead of interleaving with this attempt.
	prior, err := uc.claim(order)
	if err != nil {
		return err
	}

	if err := uc.distribute(ctx, order, input); err != nil {
		uc.release(order.ID, prior)
		return err
	}
	return nil
}

// claim flips an assignable order to DISTRIBUTING under the version check
// and reports the status it held before, so a failed attempt can hand the
// order back.
func (uc *DefaultAssignmentUsecase) claim(order *domain.Order) (domain.OrderStatus, error) {
	var prior domain.OrderStatus
	claimed, err := domain.MutateOrder(uc.orderRepo, order.ID, versionConflictRetries, func(o *domain.Order) error {
		if !o.Assignable() {
			return fmt.Errorf("%w: order %s has status %s", domain.ErrOrderNotAssignable, o.ID, o.Status)
		}
		prior = o.Status
		o.Status = domain.StatusDistributing
		return nil
	})
	if err != nil {
		return "", err
	}
	*order = *claimed
	return prior, nil
}

// errClaimLost aborts a release when the order moved on while this attempt
// held it, usually through an operator action.
var errClaimLost = errors.New("claim no longer held")

// release restores the pre-claim status after a failed attempt so the
// retry pipeline sees the order again.
func (uc *DefaultAssignmentUsecase) release(orderID string, prior domain.OrderStatus) {
	_, err := domain.MutateOrder(uc.orderRepo, orderID, versionConflictRetries, func(o *domain.Order) error {
		if o.Status != domain.StatusDistributing {
			return errClaimLost
		}
		o.Status = prior
		return nil
	})
	if err != nil && !errors.Is(err, errClaimLost) {
		slog.Warn("failed to release order after failed attempt",
			"order_id", orderID, "error", err.Error())
	}
}

func (uc *DefaultAssignmentUsecase) distribute(ctx context.Context, order *domain.Order, input *Input) error {
	targetURL := order.TargetURL
	if targetURL == "" {
		targetURL = input.TargetURL
	}
	if targetURL == "" {
		return domain.NewPermanentError(domain.ErrorTypeValidation,
			fmt.Errorf("order %s has no target URL", order.ID))
	}

	coefficient := uc.resolver.Resolve(order.ServiceID, order.ClipCreated)
	quotas, err := Allocate(order.TargetViews, coefficient)
	if err != nil {
		return err
	}

	pool, err := uc.selector.Select(order.GeoTargeting)
	if err != nil {
		return err
	}

	offerID, err := uc.ensureOffer(ctx, order, targetURL)
	if err != nil {
		return fmt.Errorf("failed to prepare offer for order %s: %w", order.ID, err)
	}

	// A previous attempt may have died between campaigns. Start the set
	// from a clean slate.
	if err := uc.assignmentRepo.DeleteByOrderID(order.ID); err != nil {
		return fmt.Errorf("failed to clear stale assignments for order %s: %w", order.ID, err)
	}

	campaignIDs := make([]string, 0, PoolSize)
	totalClicks := 0
	now := time.Now()
	for i, campaign := range pool {
		if err := uc.gateway.AssignOfferToCampaign(ctx, campaign.CampaignID, offerID); err != nil {
			uc.compensate(order.ID)
			return fmt.Errorf("failed to assign offer %s to campaign %s: %w", offerID, campaign.CampaignID, err)
		}

		slot := &domain.CampaignAssignment{
			ID:             uuid.New().String(),
			OrderID:        order.ID,
			CampaignID:     campaign.CampaignID,
			OfferID:        offerID,
			ClicksRequired: quotas[i],
			Cost:           decimal.Zero,
			Revenue:        decimal.Zero,
			Coefficient:    coefficient,
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := uc.assignmentRepo.Create(slot); err != nil {
			uc.compensate(order.ID)
			return fmt.Errorf("failed to persist assignment for order %s: %w", order.ID, err)
		}

		campaignIDs = append(campaignIDs, campaign.CampaignID)
		totalClicks += quotas[i]
	}

	if _, err := domain.MutateOrder(uc.orderRepo, order.ID, versionConflictRetries, func(o *domain.Order) error {
		if o.Status != domain.StatusDistributing || o.Recovery.ManuallyFailed {
			return fmt.Errorf("%w: order %s changed status to %s mid-assignment",
				domain.ErrOrderNotAssignable, o.ID, o.Status)
		}
		o.Status = domain.StatusProcessing
		o.OfferID = offerID
		o.Coefficient = coefficient
		o.Recovery.LastErrorType = ""
		o.Recovery.FailureReason = ""
		o.Recovery.NextRetryAt = nil
		return nil
	}); err != nil {
		uc.compensate(order.ID)
		return fmt.Errorf("failed to mark order %s processing: %w", order.ID, err)
	}

	uc.metrics.AssignmentsCreatedTotal.WithLabelValues(geoLabel(order.GeoTargeting)).Inc()
	if auditErr := uc.audit.LogAssignmentCreated(ctx, order.ID, offerID, campaignIDs, totalClicks); auditErr != nil {
		slog.Warn("failed to write assignment audit record",
			"order_id", order.ID, "error", auditErr.Error())
	}
	uc.publishOutcome(kafka.AssignmentEvent{
		OrderID:     order.ID,
		OfferID:     offerID,
		CampaignIDs: campaignIDs,
		TotalClicks: totalClicks,
		Status:      EventStatusAssigned,
		Timestamp:   time.Now(),
	})

	slog.Info("order distributed across campaign pool",
		"order_id", order.ID,
		"offer_id", offerID,
		"campaigns", campaignIDs,
		"total_clicks", totalClicks)
	return nil
}

func (uc *DefaultAssignmentUsecase) resolveOrder(input *Input) (*domain.Order, error) {
	order, err := uc.orderRepo.GetOrderByID(input.OrderID)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, domain.ErrOrderNotFound) || input.TargetViews == 0 {
		return nil, err
	}

	// First sight of the order: materialize it from intake event fields.
	now := time.Now()
	order = &domain.Order{
		ID:           input.OrderID,
		ServiceID:    input.ServiceID,
		TargetViews:  input.TargetViews,
		GeoTargeting: input.GeoTargeting,
		ClipCreated:  input.ClipCreated,
		TargetURL:    input.TargetURL,
		Coefficient:  decimal.Zero,
		Status:       domain.StatusPending,
		Recovery:     domain.RecoveryState{MaxRetries: uc.cfg.MaxRetries},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.orderRepo.CreateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to create order %s: %w", input.OrderID, err)
	}
	return order, nil
}

// ensureOffer reuses the platform offer from a previous attempt when one
// exists under the deterministic name, otherwise creates it.
func (uc *DefaultAssignmentUsecase) ensureOffer(ctx context.Context, order *domain.Order, targetURL string) (string, error) {
	name := OfferName(order.ID, order.ClipCreated)

	check, err := uc.gateway.CheckOffer(ctx, name)
	if err != nil {
		return "", err
	}
	if check.Exists {
		slog.Info("reusing existing offer", "order_id", order.ID, "offer_id", check.OfferID)
		return check.OfferID, nil
	}

	offerID, err := uc.gateway.CreateOffer(ctx, domain.OfferSpec{
		Name:         name,
		URL:          targetURL,
		GeoTargeting: order.GeoTargeting,
		Description:  fmt.Sprintf("Auto-created for order %s", order.ID),
		PayoutType:   "cpa",
	})
	if err != nil {
		return "", err
	}
	return offerID, nil
}

// OfferName builds the deterministic platform offer name of an order.
func OfferName(orderID string, clipCreated bool) string {
	variant := "DIRECT"
	if clipCreated {
		variant = "CLIP"
	}
	return fmt.Sprintf("%s-%s-%s", offerNamePrefix, orderID, variant)
}

func (uc *DefaultAssignmentUsecase) compensate(orderID string) {
	if err := uc.assignmentRepo.DeleteByOrderID(orderID); err != nil {
		slog.Error("compensation failed, stale assignments remain",
			"order_id", orderID, "error", err.Error())
	}
}

func (uc *DefaultAssignmentUsecase) publishOutcome(event kafka.AssignmentEvent) {
	if err := uc.publisher.PublishAssignment(uc.cfg.AssignmentTopic, event); err != nil {
		slog.Error("failed to publish assignment event",
			"order_id", event.OrderID, "status", event.Status, "error", err.Error())
	}
}

func geoLabel(geo string) string {
	if geo == "" {
		return domain.GeoAll
	}
	return geo
}
