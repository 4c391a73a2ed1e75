package binom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smmpanel/campaign-distribution-service/internal/domain"
)

// Client is the raw HTTP client for the Binom-style ad-routing platform.
// It maps transport and status-code failures into classified errors and
// does nothing else; resilience lives in the Gateway wrapper.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type checkOfferResponse struct {
	Exists  bool   `json:"exists"`
	OfferID string `json:"offer_id"`
}

type createOfferRequest struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	GeoTargeting []string `json:"geo_targeting"`
	Description  string   `json:"description"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	PayoutType   string   `json:"payout_type"`
}

type createOfferResponse struct {
	OfferID string `json:"offer_id"`
}

type assignOfferRequest struct {
	OfferID string `json:"offer_id"`
}

type campaignStatsResponse struct {
	Clicks      int             `json:"clicks"`
	Conversions int             `json:"conversions"`
	Cost        decimal.Decimal `json:"cost"`
	Revenue     decimal.Decimal `json:"revenue"`
}

func (c *Client) CheckOffer(ctx context.Context, name string) (*domain.CheckOfferResult, error) {
	endpoint := fmt.Sprintf("/public/api/v1/info/offer?name=%s", url.QueryEscape(name))

	var out checkOfferResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}

	return &domain.CheckOfferResult{Exists: out.Exists, OfferID: out.OfferID}, nil
}

func (c *Client) CreateOffer(ctx context.Context, spec domain.OfferSpec) (string, error) {
	payoutType := spec.PayoutType
	if payoutType == "" {
		payoutType = "CPA"
	}
	body := createOfferRequest{
		Name:         spec.Name,
		URL:          spec.URL,
		GeoTargeting: []string{spec.GeoTargeting},
		Description:  spec.Description,
		Type:         "REDIRECT",
		Status:       "ACTIVE",
		PayoutType:   payoutType,
	}

	var out createOfferResponse
	if err := c.do(ctx, http.MethodPost, "/public/api/v1/offer", body, &out); err != nil {
		return "", err
	}
	if out.OfferID == "" {
		return "", domain.NewPermanentError(domain.ErrorTypeMalformedResponse,
			fmt.Errorf("create offer %q: empty offer id in response", spec.Name))
	}

	return out.OfferID, nil
}

func (c *Client) AssignOfferToCampaign(ctx context.Context, campaignID, offerID string) error {
	endpoint := fmt.Sprintf("/public/api/v1/campaign/%s/offer", url.PathEscape(campaignID))
	return c.do(ctx, http.MethodPost, endpoint, assignOfferRequest{OfferID: offerID}, nil)
}

func (c *Client) GetCampaignStats(ctx context.Context, campaignID string) (*domain.CampaignStats, error) {
	endpoint := fmt.Sprintf("/public/api/v1/stats/campaign?campaign_id=%s", url.QueryEscape(campaignID))

	var out campaignStatsResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}

	return &domain.CampaignStats{
		Clicks:      out.Clicks,
		Conversions: out.Conversions,
		Cost:        out.Cost,
		Revenue:     out.Revenue,
	}, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return domain.NewPermanentError(domain.ErrorTypeValidation,
				fmt.Errorf("failed to encode request: %w", err))
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return domain.NewPermanentError(domain.ErrorTypeValidation,
			fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("api-key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, method, endpoint); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewRetryableError(domain.ErrorTypeExternal,
			fmt.Errorf("failed to read response body: %w", err))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewPermanentError(domain.ErrorTypeMalformedResponse,
			fmt.Errorf("failed to parse platform response: %w", err))
	}

	return nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewRetryableError(domain.ErrorTypeTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewRetryableError(domain.ErrorTypeTimeout, err)
	}
	return domain.NewRetryableError(domain.ErrorTypeExternal, err)
}

func classifyStatus(status int, method, endpoint string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500:
		return domain.NewRetryableError(domain.ErrorTypeExternal,
			fmt.Errorf("%s %s: platform returned status %d", method, endpoint, status))
	case status == http.StatusTooManyRequests:
		return domain.NewRetryableError(domain.ErrorTypeRateLimited,
			fmt.Errorf("%s %s: rate limited", method, endpoint))
	case status == http.StatusRequestTimeout:
		return domain.NewRetryableError(domain.ErrorTypeTimeout,
			fmt.Errorf("%s %s: request timeout", method, endpoint))
	case status == http.StatusNotFound:
		return domain.NewPermanentError(domain.ErrorTypeNotFound,
			fmt.Errorf("%s %s: not found", method, endpoint))
	default:
		return domain.NewPermanentError(domain.ErrorTypeValidation,
			fmt.Errorf("%s %s: platform rejected request with status %d", method, endpoint, status))
	}
}
