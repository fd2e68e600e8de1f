package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	agent "github.com/hrygo/adspilot/ai/agents"
	"github.com/hrygo/adspilot/plugin/adsmath"
	"github.com/hrygo/adspilot/plugin/destinations"
	"github.com/hrygo/adspilot/plugin/metaads"
)

// NewCampaignMetrics returns the aggregated metrics of one campaign.
func NewCampaignMetrics(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_campaign_metrics",
		"Get a campaign's spend, impressions, clicks, conversions and derived metrics (CTR, CPM, CPC, CPA, ROAS) for a date window.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("The campaign id, from find_campaign_by_name."),
			"date_preset": periodProps(),
			"since":       agent.StringProp("Custom range start, YYYY-MM-DD. Use with until instead of date_preset."),
			"until":       agent.StringProp("Custom range end, YYYY-MM-DD."),
		}, "campaign_id"),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				CampaignID string `json:"campaign_id"`
				periodArgs
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			if args.CampaignID == "" {
				return "", fmt.Errorf("campaign_id is required")
			}
			row, err := api.CampaignInsights(ctx, args.CampaignID, args.period())
			if err != nil {
				return "", err
			}
			if row == nil {
				return renderJSON(map[string]any{
					"campaign_id": args.CampaignID,
					"no_data":     true,
					"note":        "the campaign has no delivery data in this date window",
				})
			}
			return renderJSON(map[string]any{
				"campaign_id":   row.CampaignID,
				"campaign_name": row.CampaignName,
				"date_start":    row.DateStart,
				"date_stop":     row.DateStop,
				"metrics":       deriveMetrics([]metaads.Insights{*row}),
			})
		},
	)
}

// rankedAd is one ad in a ranking result.
type rankedAd struct {
	AdID    string     `json:"ad_id"`
	AdName  string     `json:"ad_name"`
	Value   float64    `json:"value"`
	Metrics metricsRow `json:"metrics"`
}

// NewRankAds ranks a campaign's ads by a metric, best or worst first.
func NewRankAds(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"rank_ads",
		"Rank a campaign's ads by one metric (ctr, cpa, spend, conversions, ...). order=best puts the best-performing ad first; for cost metrics like cpa best means lowest.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("The campaign id."),
			"metric":      agent.StringProp("Metric to rank by: spend, impressions, clicks, conversions, ctr, cpm, cpc, cpa, conversion_rate, roas."),
			"order":       agent.StringProp("best or worst. Defaults to best."),
			"limit":       agent.IntProp("Maximum ads to return. Defaults to 10."),
			"date_preset": periodProps(),
		}, "campaign_id", "metric"),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				CampaignID string `json:"campaign_id"`
				Metric     string `json:"metric"`
				Order      string `json:"order"`
				Limit      int    `json:"limit"`
				periodArgs
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			if args.CampaignID == "" {
				return "", fmt.Errorf("campaign_id is required")
			}
			rows, err := api.AdInsights(ctx, args.CampaignID, args.period())
			if err != nil {
				return "", err
			}
			if len(rows) == 0 {
				return renderJSON(map[string]any{
					"campaign_id": args.CampaignID,
					"no_data":     true,
				})
			}

			ranked := make([]rankedAd, 0, len(rows))
			for _, r := range rows {
				metrics := deriveMetrics([]metaads.Insights{r})
				value, err := metricValue(metrics, args.Metric)
				if err != nil {
					return "", err
				}
				ranked = append(ranked, rankedAd{
					AdID:    r.AdID,
					AdName:  r.AdName,
					Value:   value,
					Metrics: metrics,
				})
			}

			bestFirst := !strings.EqualFold(args.Order, "worst")
			higherWins := !adsmath.LowerIsBetter(strings.ToLower(args.Metric))
			sort.SliceStable(ranked, func(i, j int) bool {
				if higherWins == bestFirst {
					return ranked[i].Value > ranked[j].Value
				}
				return ranked[i].Value < ranked[j].Value
			})

			limit := args.Limit
			if limit <= 0 || limit > len(ranked) {
				limit = len(ranked)
				if limit > 10 {
					limit = 10
				}
			}
			order := "best"
			if !bestFirst {
				order = "worst"
			}
			return renderJSON(map[string]any{
				"campaign_id": args.CampaignID,
				"metric":      strings.ToLower(args.Metric),
				"order":       order,
				"ads":         ranked[:limit],
			})
		},
	)
}

// comparisonPeriod resolves one side of a period comparison. On top of
// the Graph API presets it understands this_week, last_week and
// previous_7d, which the API has no preset for, by computing explicit
// since/until ranges (weeks start on Monday).
func comparisonPeriod(preset, since, until string, now time.Time) (metaads.Period, error) {
	if since != "" || until != "" {
		if since == "" || until == "" {
			return metaads.Period{}, fmt.Errorf("custom range needs both since and until")
		}
		return metaads.Period{Since: since, Until: until}, nil
	}
	if preset == "" {
		return metaads.Period{}, fmt.Errorf("period needs a date preset or a since/until range")
	}

	const layout = "2006-01-02"
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))

	switch preset {
	case "this_week":
		return metaads.Period{Since: monday.Format(layout), Until: today.Format(layout)}, nil
	case "last_week":
		return metaads.Period{
			Since: monday.AddDate(0, 0, -7).Format(layout),
			Until: monday.AddDate(0, 0, -1).Format(layout),
		}, nil
	case "previous_7d":
		// The 7 days preceding the last_7d window.
		return metaads.Period{
			Since: today.AddDate(0, 0, -14).Format(layout),
			Until: today.AddDate(0, 0, -8).Format(layout),
		}, nil
	}
	return metaads.Period{Preset: preset}, nil
}

func periodLabel(p metaads.Period) string {
	if p.Preset != "" {
		return p.Preset
	}
	return p.Since + ".." + p.Until
}

// NewComparePeriods compares the same scope across two date windows and
// reports percent deltas per metric.
func NewComparePeriods(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"compare_periods",
		"Compare metrics between two date windows, for one campaign or for the whole account when campaign_id is omitted. Periods take a preset (including this_week, last_week, previous_7d) or a custom since/until range. Reports percent change per metric.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("Optional campaign id. Omit to compare the whole account."),
			"period_1":    periodProps(),
			"period_2":    periodProps(),
			"since_1":     agent.StringProp("Custom start for the first period, YYYY-MM-DD. Use with until_1 instead of period_1."),
			"until_1":     agent.StringProp("Custom end for the first period, YYYY-MM-DD."),
			"since_2":     agent.StringProp("Custom start for the second period, YYYY-MM-DD. Use with until_2 instead of period_2."),
			"until_2":     agent.StringProp("Custom end for the second period, YYYY-MM-DD."),
		}),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				CampaignID string `json:"campaign_id"`
				Period1    string `json:"period_1"`
				Period2    string `json:"period_2"`
				Since1     string `json:"since_1"`
				Until1     string `json:"until_1"`
				Since2     string `json:"since_2"`
				Until2     string `json:"until_2"`
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}

			now := time.Now()
			first, err := comparisonPeriod(args.Period1, args.Since1, args.Until1, now)
			if err != nil {
				return "", fmt.Errorf("period_1: %w", err)
			}
			second, err := comparisonPeriod(args.Period2, args.Since2, args.Until2, now)
			if err != nil {
				return "", fmt.Errorf("period_2: %w", err)
			}

			fetch := func(period metaads.Period) (metricsRow, error) {
				if args.CampaignID != "" {
					row, err := api.CampaignInsights(ctx, args.CampaignID, period)
					if err != nil {
						return metricsRow{}, err
					}
					if row == nil {
						return metricsRow{}, nil
					}
					return deriveMetrics([]metaads.Insights{*row}), nil
				}
				rows, err := api.AccountInsights(ctx, period)
				if err != nil {
					return metricsRow{}, err
				}
				return deriveMetrics(rows), nil
			}

			previous, err := fetch(first)
			if err != nil {
				return "", err
			}
			current, err := fetch(second)
			if err != nil {
				return "", err
			}

			return renderJSON(map[string]any{
				"campaign_id": args.CampaignID,
				"period_1":    map[string]any{"preset": args.Period1, "range": periodLabel(first), "metrics": previous},
				"period_2":    map[string]any{"preset": args.Period2, "range": periodLabel(second), "metrics": current},
				"change_pct": map[string]float64{
					"spend":       adsmath.PercentDelta(previous.Spend, current.Spend),
					"impressions": adsmath.PercentDelta(float64(previous.Impressions), float64(current.Impressions)),
					"clicks":      adsmath.PercentDelta(float64(previous.Clicks), float64(current.Clicks)),
					"conversions": adsmath.PercentDelta(float64(previous.Conversions), float64(current.Conversions)),
					"ctr":         adsmath.PercentDelta(previous.CTR, current.CTR),
					"cpa":         adsmath.PercentDelta(previous.CPA, current.CPA),
					"cpc":         adsmath.PercentDelta(previous.CPC, current.CPC),
					"cpm":         adsmath.PercentDelta(previous.CPM, current.CPM),
				},
			})
		},
	)
}

// NewGlobalMetrics aggregates the whole account and lists per-campaign rows.
func NewGlobalMetrics(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_global_metrics",
		"Get aggregated metrics for the whole ad account over a date window, plus a per-campaign breakdown.",
		agent.ObjectSchema(map[string]any{
			"date_preset": periodProps(),
			"since":       agent.StringProp("Custom range start, YYYY-MM-DD."),
			"until":       agent.StringProp("Custom range end, YYYY-MM-DD."),
		}),
		func(ctx context.Context, input string) (string, error) {
			var args periodArgs
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			rows, err := api.AccountInsights(ctx, args.period())
			if err != nil {
				return "", err
			}
			perCampaign := make([]map[string]any, len(rows))
			for i, r := range rows {
				perCampaign[i] = map[string]any{
					"campaign_id":   r.CampaignID,
					"campaign_name": r.CampaignName,
					"destination":   destinations.Extract(r.CampaignName),
					"metrics":       deriveMetrics([]metaads.Insights{r}),
				}
			}
			return renderJSON(map[string]any{
				"total":     deriveMetrics(rows),
				"campaigns": perCampaign,
			})
		},
	)
}

// NewGlobalCPA reports account CPA with the per-campaign spread.
func NewGlobalCPA(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_global_cpa",
		"Get the account-level cost per acquisition (total spend over total conversions) plus the CPA of each campaign, sorted cheapest first.",
		agent.ObjectSchema(map[string]any{
			"date_preset": periodProps(),
		}),
		func(ctx context.Context, input string) (string, error) {
			var args periodArgs
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			rows, err := api.AccountInsights(ctx, args.period())
			if err != nil {
				return "", err
			}
			total := deriveMetrics(rows)
			type campaignCPA struct {
				CampaignID   string  `json:"campaign_id"`
				CampaignName string  `json:"campaign_name"`
				Spend        float64 `json:"spend"`
				Conversions  int64   `json:"conversions"`
				CPA          float64 `json:"cpa"`
			}
			perCampaign := make([]campaignCPA, len(rows))
			for i, r := range rows {
				m := deriveMetrics([]metaads.Insights{r})
				perCampaign[i] = campaignCPA{
					CampaignID:   r.CampaignID,
					CampaignName: r.CampaignName,
					Spend:        m.Spend,
					Conversions:  m.Conversions,
					CPA:          m.CPA,
				}
			}
			sort.SliceStable(perCampaign, func(i, j int) bool {
				return perCampaign[i].CPA < perCampaign[j].CPA
			})
			return renderJSON(map[string]any{
				"global_cpa":        total.CPA,
				"total_spend":       total.Spend,
				"total_conversions": total.Conversions,
				"campaigns":         perCampaign,
			})
		},
	)
}

// NewDestinationMetrics aggregates the campaigns of one destination.
func NewDestinationMetrics(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_destination_metrics",
		"Get aggregated metrics for all campaigns of one destination (Baqueira, Ibiza, Canarias, ...).",
		agent.ObjectSchema(map[string]any{
			"destination": agent.StringProp("The destination as the user wrote it."),
			"date_preset": periodProps(),
		}, "destination"),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				Destination string `json:"destination"`
				periodArgs
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			dest, ok := destinations.Resolve(args.Destination)
			if !ok {
				return renderJSON(map[string]any{
					"found":        false,
					"query":        args.Destination,
					"destinations": destinations.Known(),
				})
			}
			rows, err := api.AccountInsights(ctx, args.period())
			if err != nil {
				return "", err
			}
			var matched []metaads.Insights
			names := make([]string, 0, 4)
			for _, r := range rows {
				if destinations.Extract(r.CampaignName) == dest {
					matched = append(matched, r)
					names = append(names, r.CampaignName)
				}
			}
			if len(matched) == 0 {
				return renderJSON(map[string]any{
					"found":       true,
					"destination": dest,
					"no_data":     true,
				})
			}
			return renderJSON(map[string]any{
				"found":       true,
				"destination": dest,
				"campaigns":   names,
				"metrics":     deriveMetrics(matched),
			})
		},
	)
}

// NewCompareDestinations groups account metrics by destination.
func NewCompareDestinations(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"compare_destinations",
		"Compare metrics across destinations. Omit destinations to compare every destination with delivery in the window.",
		agent.ObjectSchema(map[string]any{
			"destinations": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Optional list of destinations to compare. Empty compares all.",
			},
			"date_preset": periodProps(),
		}),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				Destinations []string `json:"destinations"`
				periodArgs
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			rows, err := api.AccountInsights(ctx, args.period())
			if err != nil {
				return "", err
			}

			wanted := make(map[string]bool, len(args.Destinations))
			for _, d := range args.Destinations {
				if dest, ok := destinations.Resolve(d); ok {
					wanted[dest] = true
				}
			}

			grouped := make(map[string][]metaads.Insights)
			for _, r := range rows {
				dest := destinations.Extract(r.CampaignName)
				if len(wanted) > 0 && !wanted[dest] {
					continue
				}
				grouped[dest] = append(grouped[dest], r)
			}

			type destRow struct {
				Destination string     `json:"destination"`
				Campaigns   int        `json:"campaigns"`
				Metrics     metricsRow `json:"metrics"`
			}
			result := make([]destRow, 0, len(grouped))
			for dest, group := range grouped {
				result = append(result, destRow{
					Destination: dest,
					Campaigns:   len(group),
					Metrics:     deriveMetrics(group),
				})
			}
			sort.SliceStable(result, func(i, j int) bool {
				return result[i].Metrics.Spend > result[j].Metrics.Spend
			})
			return renderJSON(map[string]any{"destinations": result})
		},
	)
}

// NewAdSetMetrics breaks a campaign down by adset.
func NewAdSetMetrics(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_adset_metrics",
		"Get per-adset metrics for one campaign over a date window.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("The campaign id."),
			"date_preset": periodProps(),
		}, "campaign_id"),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				CampaignID string `json:"campaign_id"`
				periodArgs
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			if args.CampaignID == "" {
				return "", fmt.Errorf("campaign_id is required")
			}
			rows, err := api.AdSetInsights(ctx, args.CampaignID, args.period())
			if err != nil {
				return "", err
			}
			adsets := make([]map[string]any, len(rows))
			for i, r := range rows {
				adsets[i] = map[string]any{
					"adset_id":   r.AdsetID,
					"adset_name": r.AdsetName,
					"metrics":    deriveMetrics([]metaads.Insights{r}),
				}
			}
			return renderJSON(map[string]any{
				"campaign_id": args.CampaignID,
				"adsets":      adsets,
			})
		},
	)
}

// funnelStage maps a conversion action type onto the lead funnel.
func funnelStage(actionType string) string {
	lowered := strings.ToLower(actionType)
	switch {
	case strings.Contains(lowered, "mql"):
		return "mql"
	case strings.Contains(lowered, "sql"):
		return "sql"
	case lowered == "purchase" || strings.Contains(lowered, "customer"):
		return "customer"
	case lowered == "lead" || strings.Contains(lowered, "subscribe") || strings.Contains(lowered, "complete_registration"):
		return "subscriber"
	}
	return ""
}

// NewFunnelMetrics counts conversions per funnel stage.
func NewFunnelMetrics(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_funnel_conversions",
		"Count conversions per funnel stage (subscriber, MQL, SQL, customer) for one campaign or the whole account.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("Optional campaign id. Omit for the whole account."),
			"date_preset": periodProps(),
		}),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				CampaignID string `json:"campaign_id"`
				periodArgs
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}

			var rows []metaads.Insights
			if args.CampaignID != "" {
				row, err := api.CampaignInsights(ctx, args.CampaignID, args.period())
				if err != nil {
					return "", err
				}
				if row != nil {
					rows = []metaads.Insights{*row}
				}
			} else {
				var err error
				rows, err = api.AccountInsights(ctx, args.period())
				if err != nil {
					return "", err
				}
			}

			stages := map[string]int64{"subscriber": 0, "mql": 0, "sql": 0, "customer": 0}
			for _, r := range rows {
				for _, a := range r.Actions {
					if stage := funnelStage(a.ActionType); stage != "" {
						stages[stage] += safeActionValue(a)
					}
				}
			}
			return renderJSON(map[string]any{
				"campaign_id": args.CampaignID,
				"funnel": map[string]int64{
					"subscriber": stages["subscriber"],
					"mql":        stages["mql"],
					"sql":        stages["sql"],
					"customer":   stages["customer"],
				},
			})
		},
	)
}

func safeActionValue(a metaads.Action) int64 {
	v, err := strconv.ParseInt(a.Value, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// PerformanceRegistry builds the performance specialist's operation set.
func PerformanceRegistry(api MetaAPI) (*agent.Registry, error) {
	return agent.NewRegistry(
		NewFindCampaign(api),
		NewCampaignMetrics(api),
		NewRankAds(api),
		NewComparePeriods(api),
		NewGlobalMetrics(api),
		NewGlobalCPA(api),
		NewDestinationMetrics(api),
		NewCompareDestinations(api),
		NewAdSetMetrics(api),
		NewFunnelMetrics(api),
	)
}
