package binom

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/logger"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/resilience"
)

// Operation names used as breaker keys. One breaker per logical call so a
// broken stats endpoint does not short-circuit offer creation.
const (
	opCheckOffer  = "binom:check-offer"
	opCreateOffer = "binom:create-offer"
	opAssignOffer = "binom:assign-offer"
	opGetStats    = "binom:campaign-stats"
)

// Gateway wraps the raw client with the retry/circuit-breaker executor and
// a last-known stats cache. It implements domain.AdPlatformGateway.
type Gateway struct {
	client   *Client
	executor *resilience.Executor
	audit    logger.AuditLogger

	mu         sync.RWMutex
	statsCache map[string]domain.CampaignStats
}

func NewGateway(client *Client, executor *resilience.Executor, audit logger.AuditLogger) *Gateway {
	return &Gateway{
		client:     client,
		executor:   executor,
		audit:      audit,
		statsCache: make(map[string]domain.CampaignStats),
	}
}

func (g *Gateway) CheckOffer(ctx context.Context, name string) (*domain.CheckOfferResult, error) {
	var result *domain.CheckOfferResult
	err := g.executor.Execute(ctx, opCheckOffer, func(ctx context.Context) error {
		var err error
		result, err = g.client.CheckOffer(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Gateway) CreateOffer(ctx context.Context, spec domain.OfferSpec) (string, error) {
	var offerID string
	err := g.executor.Execute(ctx, opCreateOffer, func(ctx context.Context) error {
		var err error
		offerID, err = g.client.CreateOffer(ctx, spec)
		return err
	})
	if err != nil {
		return "", err
	}
	return offerID, nil
}

func (g *Gateway) AssignOfferToCampaign(ctx context.Context, campaignID, offerID string) error {
	return g.executor.Execute(ctx, opAssignOffer, func(ctx context.Context) error {
		return g.client.AssignOfferToCampaign(ctx, campaignID, offerID)
	})
}

// GetCampaignStats pulls fresh stats and refreshes the cache. When the call
// fails retryably (including an open breaker) and a cached snapshot exists,
// it is returned marked stale instead of an error.
func (g *Gateway) GetCampaignStats(ctx context.Context, campaignID string) (*domain.CampaignStats, error) {
	var stats *domain.CampaignStats
	err := g.executor.Execute(ctx, opGetStats, func(ctx context.Context) error {
		var err error
		stats, err = g.client.GetCampaignStats(ctx, campaignID)
		return err
	})
	if err == nil {
		g.mu.Lock()
		g.statsCache[campaignID] = *stats
		g.mu.Unlock()
		return stats, nil
	}

	if domain.IsRetryable(err) {
		g.mu.RLock()
		cached, ok := g.statsCache[campaignID]
		g.mu.RUnlock()
		if ok {
			cached.Stale = true
			slog.Warn("serving stale campaign stats from cache",
				"campaign_id", campaignID, "error", err.Error())
			return &cached, nil
		}
	}

	return nil, err
}

// Campaign status changes are not exposed by the platform's v2 API yet, so
// pause/resume/stop run as fire-and-forget tasks with logged outcomes.
// TODO: call the campaign update endpoint once the platform ships it.

func (g *Gateway) PauseCampaign(campaignID string) {
	go g.logStatusChange("pause", campaignID)
}

func (g *Gateway) ResumeCampaign(campaignID string) {
	go g.logStatusChange("resume", campaignID)
}

func (g *Gateway) StopCampaign(campaignID string) {
	go g.logStatusChange("stop", campaignID)
}

func (g *Gateway) logStatusChange(action, campaignID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Probe campaign reachability so a dead platform is at least visible in
	// the logs while the real update endpoint is missing.
	_, err := g.GetCampaignStats(ctx, campaignID)
	if err != nil && !errors.Is(err, domain.ErrServiceUnavailable) {
		slog.Error("campaign status change requested against unreachable campaign",
			"action", action, "campaign_id", campaignID, "error", err.Error())
		return
	}

	slog.Info("campaign status change requested, manual update needed on platform",
		"action", action, "campaign_id", campaignID)

	if g.audit != nil {
		if auditErr := g.audit.LogCampaignAction(ctx, campaignID, "CAMPAIGN_"+strings.ToUpper(action)); auditErr != nil {
			slog.Warn("failed to write campaign audit record",
				"campaign_id", campaignID, "error", auditErr.Error())
		}
	}
}
