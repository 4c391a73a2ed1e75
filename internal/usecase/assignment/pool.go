package assignment

import (
	"fmt"
	"log/slog"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
)

// CampaignPoolSelector picks the fixed campaigns an order is spread
// across: geo-matching campaigns first, the global top of the pool as a
// fallback. The result is always exactly PoolSize campaigns or an error.
type CampaignPoolSelector struct {
	campaignRepo domain.FixedCampaignRepository
}

func NewCampaignPoolSelector(campaignRepo domain.FixedCampaignRepository) *CampaignPoolSelector {
	return &CampaignPoolSelector{campaignRepo: campaignRepo}
}

func (s *CampaignPoolSelector) Select(geo string) ([]*domain.FixedCampaign, error) {
	if geo == "" {
		geo = domain.GeoAll
	}

	campaigns, err := s.campaignRepo.FindActiveByGeo(geo, PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign pool for geo %s: %w", geo, err)
	}

	if len(campaigns) < PoolSize {
		slog.Info("geo pool too small, falling back to top campaigns by weight",
			"geo", geo, "matched", len(campaigns))
		campaigns, err = s.campaignRepo.FindTopActive(PoolSize)
		if err != nil {
			return nil, fmt.Errorf("failed to query fallback campaign pool: %w", err)
		}
	}

	if len(campaigns) != PoolSize {
		return nil, domain.NewPermanentError(domain.ErrorTypeConfiguration,
			fmt.Errorf("%w: have %d", domain.ErrCampaignPoolMisconfigured, len(campaigns)))
	}
	return campaigns, nil
}
