package domain

import "context"

type CheckOfferResult struct {
	Exists  bool
	OfferID string
}

type OfferSpec struct {
	Name         string
	URL          string
	GeoTargeting string
	Description  string
	PayoutType   string
}

// AdPlatformGateway is the resilience-wrapped surface of the external
// ad-routing platform. Every method returns either a success value or a
// ClassifiedError; callers decide retry vs. fail solely on that.
type AdPlatformGateway interface {
	CheckOffer(ctx context.Context, name string) (*CheckOfferResult, error)
	CreateOffer(ctx context.Context, spec OfferSpec) (string, error)
	AssignOfferToCampaign(ctx context.Context, campaignID, offerID string) error
	GetCampaignStats(ctx context.Context, campaignID string) (*CampaignStats, error)

	// Fire-and-forget against the platform's v2 semantics: the outcome is
	// logged and audited but not awaited by callers.
	PauseCampaign(campaignID string)
	ResumeCampaign(campaignID string)
	StopCampaign(campaignID string)
}
