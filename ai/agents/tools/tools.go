// Package tools implements the data operations the specialists expose
// to the LLM: campaign configuration lookups, performance metrics, and
// account audits, all read-only against the Meta Marketing API.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/adspilot/plugin/adsmath"
	"github.com/hrygo/adspilot/plugin/metaads"
)

// MetaAPI is the slice of the Graph API client the operations consume.
// Narrowed to an interface so tests can substitute canned data.
type MetaAPI interface {
	ListCampaigns(ctx context.Context, status string, limit int) ([]metaads.Campaign, error)
	GetCampaign(ctx context.Context, campaignID string) (*metaads.Campaign, error)
	ListAdSets(ctx context.Context, campaignID string) ([]metaads.AdSet, error)
	CampaignInsights(ctx context.Context, campaignID string, period metaads.Period) (*metaads.Insights, error)
	AccountInsights(ctx context.Context, period metaads.Period) ([]metaads.Insights, error)
	AdInsights(ctx context.Context, campaignID string, period metaads.Period) ([]metaads.Insights, error)
	AdSetInsights(ctx context.Context, campaignID string, period metaads.Period) ([]metaads.Insights, error)
}

func decodeInput(input string, out any) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		trimmed = "{}"
	}
	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return fmt.Errorf("invalid operation arguments: %w", err)
	}
	return nil
}

func renderJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode operation result: %w", err)
	}
	return string(data), nil
}

// periodArgs are the date-window fields shared by every insights
// operation. Empty means last_7d.
type periodArgs struct {
	DatePreset string `json:"date_preset,omitempty"`
	Since      string `json:"since,omitempty"`
	Until      string `json:"until,omitempty"`
}

func (p periodArgs) period() metaads.Period {
	if p.DatePreset == "" && p.Since == "" && p.Until == "" {
		return metaads.Period{Preset: "last_7d"}
	}
	return metaads.Period{Preset: p.DatePreset, Since: p.Since, Until: p.Until}
}

func periodProps() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Date preset: today, yesterday, last_7d, last_14d, last_28d, last_30d, this_month, last_month. Defaults to last_7d.",
	}
}

// metricsRow is the derived-metrics shape every performance operation
// renders for one insights row.
type metricsRow struct {
	Spend          float64 `json:"spend"`
	Impressions    int64   `json:"impressions"`
	Clicks         int64   `json:"clicks"`
	Conversions    int64   `json:"conversions"`
	CTR            float64 `json:"ctr"`
	CPM            float64 `json:"cpm"`
	CPC            float64 `json:"cpc"`
	CPA            float64 `json:"cpa"`
	ConversionRate float64 `json:"conversion_rate"`
	ROAS           float64 `json:"roas"`
}

func deriveMetrics(rows []metaads.Insights) metricsRow {
	var spend, revenue float64
	var impressions, clicks, conversions int64
	for _, r := range rows {
		spend += r.SpendEUR()
		revenue += r.ConversionValue()
		impressions += r.ImpressionCount()
		clicks += r.ClickCount()
		conversions += r.Conversions()
	}
	return metricsRow{
		Spend:          spend,
		Impressions:    impressions,
		Clicks:         clicks,
		Conversions:    conversions,
		CTR:            adsmath.CTR(clicks, impressions),
		CPM:            adsmath.CPM(spend, impressions),
		CPC:            adsmath.CPC(spend, clicks),
		CPA:            adsmath.CPA(spend, conversions),
		ConversionRate: adsmath.ConversionRate(conversions, clicks),
		ROAS:           adsmath.ROAS(revenue, spend),
	}
}

// metricValue extracts one named metric from a derived row.
func metricValue(m metricsRow, metric string) (float64, error) {
	switch strings.ToLower(metric) {
	case "spend", "gasto":
		return m.Spend, nil
	case "impressions", "impresiones":
		return float64(m.Impressions), nil
	case "clicks":
		return float64(m.Clicks), nil
	case "conversions", "conversiones":
		return float64(m.Conversions), nil
	case "ctr":
		return m.CTR, nil
	case "cpm":
		return m.CPM, nil
	case "cpc":
		return m.CPC, nil
	case "cpa":
		return m.CPA, nil
	case "conversion_rate":
		return m.ConversionRate, nil
	case "roas":
		return m.ROAS, nil
	}
	return 0, fmt.Errorf("unknown metric %q (valid: spend, impressions, clicks, conversions, ctr, cpm, cpc, cpa, conversion_rate, roas)", metric)
}
