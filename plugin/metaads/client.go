// Package metaads is a thin client for the Meta Marketing (Graph) API,
// scoped to the read-only campaign, adset, ad and insights queries the
// specialist operations need.
package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://graph.facebook.com"

// validPresets are the date presets the Graph API accepts. Anything the
// model invents ("last_week", "this_week") is rejected up front.
var validPresets = map[string]bool{
	"today":      true,
	"yesterday":  true,
	"last_7d":    true,
	"last_14d":   true,
	"last_28d":   true,
	"last_30d":   true,
	"this_month": true,
	"last_month": true,
	"maximum":    true,
}

// Period selects an insights window: either a named preset or a custom
// since/until range in YYYY-MM-DD.
type Period struct {
	Preset string `json:"date_preset,omitempty"`
	Since  string `json:"since,omitempty"`
	Until  string `json:"until,omitempty"`
}

// Validate checks that the period names a known preset or a complete
// custom range.
func (p Period) Validate() error {
	if p.Preset != "" {
		if !validPresets[p.Preset] {
			return fmt.Errorf("invalid date preset %q (valid: today, yesterday, last_7d, last_14d, last_28d, last_30d, this_month, last_month)", p.Preset)
		}
		return nil
	}
	if p.Since == "" || p.Until == "" {
		return fmt.Errorf("period requires either date_preset or both since and until")
	}
	return nil
}

func (p Period) apply(params map[string]string) {
	if p.Preset != "" {
		params["date_preset"] = p.Preset
		return
	}
	params["time_range"] = fmt.Sprintf(`{"since":"%s","until":"%s"}`, p.Since, p.Until)
}

// Config configures the client.
type Config struct {
	AccessToken  string
	AdAccountID  string // with or without the act_ prefix
	APIVersion   string // e.g. v23.0
	BaseURL      string // override for tests
	RateLimitRPS float64
}

// Client is a rate-limited Graph API client.
type Client struct {
	http      *resty.Client
	limiter   *rate.Limiter
	accountID string
	version   string
}

// NewClient creates a Graph API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("meta access token required")
	}
	if cfg.AdAccountID == "" {
		return nil, fmt.Errorf("meta ad account id required")
	}

	accountID := cfg.AdAccountID
	if !strings.HasPrefix(accountID, "act_") {
		accountID = "act_" + accountID
	}
	version := cfg.APIVersion
	if version == "" {
		version = "v23.0"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetQueryParam("access_token", cfg.AccessToken)

	return &Client{
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Limit(rps), int(rps)*2),
		accountID: accountID,
		version:   version,
	}, nil
}

// apiError is the Graph API error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// listEnvelope is the Graph API paged list envelope.
type listEnvelope[T any] struct {
	Data   []T `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

func get[T any](ctx context.Context, c *Client, path string, params map[string]string) ([]T, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(fmt.Sprintf("/%s/%s", c.version, path))
	if err != nil {
		return nil, fmt.Errorf("meta api request %s: %w", path, err)
	}

	slog.Debug("metaads: request completed",
		"path", path,
		"status", resp.StatusCode(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.IsError() {
		var apiErr apiError
		if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("meta api %s: %s (code %d)", path, apiErr.Error.Message, apiErr.Error.Code)
		}
		return nil, fmt.Errorf("meta api %s: http %d", path, resp.StatusCode())
	}

	var envelope listEnvelope[T]
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("meta api %s: decode response: %w", path, err)
	}
	return envelope.Data, nil
}

// ListCampaigns returns campaigns filtered by status. An empty status
// returns all campaigns.
func (c *Client) ListCampaigns(ctx context.Context, status string, limit int) ([]Campaign, error) {
	if limit <= 0 {
		limit = 50
	}
	params := map[string]string{
		"fields": "id,name,status,objective,bid_strategy,daily_budget,lifetime_budget",
		"limit":  fmt.Sprintf("%d", limit),
	}
	if status != "" {
		params["effective_status"] = fmt.Sprintf(`["%s"]`, status)
	}
	return get[Campaign](ctx, c, c.accountID+"/campaigns", params)
}

// GetCampaign returns one campaign by ID.
func (c *Client) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "id,name,status,objective,bid_strategy,daily_budget,lifetime_budget").
		Get(fmt.Sprintf("/%s/%s", c.version, campaignID))
	if err != nil {
		return nil, fmt.Errorf("meta api campaign %s: %w", campaignID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("meta api campaign %s: http %d", campaignID, resp.StatusCode())
	}
	var campaign Campaign
	if err := json.Unmarshal(resp.Body(), &campaign); err != nil {
		return nil, fmt.Errorf("meta api campaign %s: decode: %w", campaignID, err)
	}
	return &campaign, nil
}

// ListAdSets returns the adsets of a campaign, including targeting.
func (c *Client) ListAdSets(ctx context.Context, campaignID string) ([]AdSet, error) {
	params := map[string]string{
		"fields": "id,name,status,campaign_id,daily_budget,optimization_goal,targeting",
		"limit":  "100",
	}
	return get[AdSet](ctx, c, campaignID+"/adsets", params)
}

// CampaignInsights returns the aggregated insights row for one campaign
// over a period. Returns nil when the API has no data for the window.
func (c *Client) CampaignInsights(ctx context.Context, campaignID string, period Period) (*Insights, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	params := map[string]string{
		"fields": "campaign_id,campaign_name,spend,impressions,clicks,actions,action_values,date_start,date_stop",
	}
	period.apply(params)

	rows, err := get[Insights](ctx, c, campaignID+"/insights", params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// AccountInsights returns per-campaign insights rows for the whole ad
// account over a period.
func (c *Client) AccountInsights(ctx context.Context, period Period) ([]Insights, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	params := map[string]string{
		"fields": "campaign_id,campaign_name,spend,impressions,clicks,actions,action_values,date_start,date_stop",
		"level":  "campaign",
		"limit":  "200",
	}
	period.apply(params)
	return get[Insights](ctx, c, c.accountID+"/insights", params)
}

// AdInsights returns per-ad insights rows for a campaign over a period.
func (c *Client) AdInsights(ctx context.Context, campaignID string, period Period) ([]Insights, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	params := map[string]string{
		"fields": "ad_id,ad_name,campaign_id,campaign_name,spend,impressions,clicks,actions,action_values,date_start,date_stop",
		"level":  "ad",
		"limit":  "200",
	}
	period.apply(params)
	return get[Insights](ctx, c, campaignID+"/insights", params)
}

// AdSetInsights returns per-adset insights rows for a campaign over a period.
func (c *Client) AdSetInsights(ctx context.Context, campaignID string, period Period) ([]Insights, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	params := map[string]string{
		"fields": "adset_id,adset_name,campaign_id,campaign_name,spend,impressions,clicks,actions,action_values,date_start,date_stop",
		"level":  "adset",
		"limit":  "200",
	}
	period.apply(params)
	return get[Insights](ctx, c, campaignID+"/insights", params)
}
