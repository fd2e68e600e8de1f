package tools

import (
	"context"
	"fmt"
	"sort"

	agent "github.com/hrygo/adspilot/ai/agents"
	"github.com/hrygo/adspilot/plugin/adsmath"
	"github.com/hrygo/adspilot/plugin/metaads"
)

const (
	lowDailyBudgetEUR = 10.0
	lowCTRPct         = 0.5
	highCPAFactor     = 1.5
)

// finding is one audit observation with a severity and a suggested action.
type finding struct {
	Severity   string `json:"severity"` // high, medium, low
	Check      string `json:"check"`
	Detail     string `json:"detail"`
	Suggestion string `json:"suggestion"`
}

// NewAuditCampaign inspects one campaign's configuration for common
// optimization gaps.
func NewAuditCampaign(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"audit_campaign",
		"Audit one campaign's configuration: Advantage+ audience, budget level, age targeting breadth, paused adsets. Returns findings with severity and a suggested action each.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("The campaign id, from find_campaign_by_name."),
		}, "campaign_id"),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				CampaignID string `json:"campaign_id"`
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			if args.CampaignID == "" {
				return "", fmt.Errorf("campaign_id is required")
			}
			campaign, err := api.GetCampaign(ctx, args.CampaignID)
			if err != nil {
				return "", err
			}
			adsets, err := api.ListAdSets(ctx, args.CampaignID)
			if err != nil {
				return "", err
			}

			findings := auditAdSets(campaign, adsets)
			return renderJSON(map[string]any{
				"campaign_id":   campaign.ID,
				"campaign_name": campaign.Name,
				"adsets":        len(adsets),
				"findings":      findings,
			})
		},
	)
}

func auditAdSets(campaign *metaads.Campaign, adsets []metaads.AdSet) []finding {
	findings := []finding{}

	for _, a := range adsets {
		if a.Status != "ACTIVE" {
			findings = append(findings, finding{
				Severity:   "low",
				Check:      "adset_status",
				Detail:     fmt.Sprintf("adset %q is %s", a.Name, a.Status),
				Suggestion: "confirm the adset should stay paused; paused adsets still count against the campaign structure",
			})
			continue
		}
		if !a.Targeting.AdvantageAudienceEnabled() {
			findings = append(findings, finding{
				Severity:   "high",
				Check:      "advantage_audience",
				Detail:     fmt.Sprintf("adset %q has Advantage+ audience disabled", a.Name),
				Suggestion: "enable Advantage+ audience to let delivery expand beyond the manual audience",
			})
		}
		budget := a.DailyBudgetEUR()
		if budget > 0 && budget < lowDailyBudgetEUR {
			findings = append(findings, finding{
				Severity:   "medium",
				Check:      "daily_budget",
				Detail:     fmt.Sprintf("adset %q daily budget is %.2f EUR", a.Name, budget),
				Suggestion: fmt.Sprintf("budgets under %.0f EUR/day rarely exit the learning phase; consolidate or raise the budget", lowDailyBudgetEUR),
			})
		}
		if a.Targeting.AgeMin > 0 && a.Targeting.AgeMax > 0 {
			span := a.Targeting.AgeMax - a.Targeting.AgeMin
			if a.Targeting.AgeMin <= 18 && a.Targeting.AgeMax >= 65 && len(a.Targeting.FlexibleSpec) == 0 {
				findings = append(findings, finding{
					Severity:   "medium",
					Check:      "age_targeting",
					Detail:     fmt.Sprintf("adset %q targets ages %d-%d with no interest narrowing", a.Name, a.Targeting.AgeMin, a.Targeting.AgeMax),
					Suggestion: "fully open age targeting without interests dilutes delivery; narrow the audience or rely on Advantage+",
				})
			} else if span <= 5 {
				findings = append(findings, finding{
					Severity:   "low",
					Check:      "age_targeting",
					Detail:     fmt.Sprintf("adset %q targets a narrow %d-year age band (%d-%d)", a.Name, span, a.Targeting.AgeMin, a.Targeting.AgeMax),
					Suggestion: "very narrow age bands limit reach and raise CPM; consider widening",
				})
			}
		}
	}

	if campaign.BidStrategy == "" && campaign.Status == "ACTIVE" {
		findings = append(findings, finding{
			Severity:   "low",
			Check:      "bid_strategy",
			Detail:     "campaign has no explicit bid strategy",
			Suggestion: "review whether a cost cap fits the campaign objective",
		})
	}
	return findings
}

// opportunity is one account-level improvement candidate.
type opportunity struct {
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	Check        string  `json:"check"`
	Detail       string  `json:"detail"`
	Severity     string  `json:"severity"`
	Spend        float64 `json:"spend"`
}

// NewScanOpportunities sweeps account performance for campaigns that
// need attention: spend without conversions, CPA well above the account
// average, weak CTR.
func NewScanOpportunities(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"scan_account_opportunities",
		"Scan the whole account for optimization candidates: campaigns spending without conversions, campaigns with CPA far above the account average, campaigns with weak CTR. Sorted by spend at risk.",
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
			account := deriveMetrics(rows)

			var opportunities []opportunity
			for _, r := range rows {
				m := deriveMetrics([]metaads.Insights{r})
				switch {
				case m.Spend > 0 && m.Conversions == 0:
					opportunities = append(opportunities, opportunity{
						CampaignID:   r.CampaignID,
						CampaignName: r.CampaignName,
						Check:        "zero_conversions",
						Detail:       fmt.Sprintf("spent %.2f EUR with no conversions", m.Spend),
						Severity:     "high",
						Spend:        m.Spend,
					})
				case account.CPA > 0 && m.CPA > account.CPA*highCPAFactor:
					opportunities = append(opportunities, opportunity{
						CampaignID:   r.CampaignID,
						CampaignName: r.CampaignName,
						Check:        "high_cpa",
						Detail:       fmt.Sprintf("CPA %.2f EUR vs account average %.2f EUR (%+.1f%%)", m.CPA, account.CPA, adsmath.PercentDelta(account.CPA, m.CPA)),
						Severity:     "medium",
						Spend:        m.Spend,
					})
				case m.Impressions > 1000 && m.CTR < lowCTRPct:
					opportunities = append(opportunities, opportunity{
						CampaignID:   r.CampaignID,
						CampaignName: r.CampaignName,
						Check:        "low_ctr",
						Detail:       fmt.Sprintf("CTR %.2f%% over %d impressions", m.CTR, m.Impressions),
						Severity:     "low",
						Spend:        m.Spend,
					})
				}
			}
			sort.SliceStable(opportunities, func(i, j int) bool {
				return opportunities[i].Spend > opportunities[j].Spend
			})
			return renderJSON(map[string]any{
				"account":       account,
				"opportunities": opportunities,
			})
		},
	)
}

// RecommendationRegistry builds the recommendation specialist's
// operation set. It carries the lookup and account-metric operations so
// recommendations can be grounded in current numbers.
func RecommendationRegistry(api MetaAPI) (*agent.Registry, error) {
	return agent.NewRegistry(
		NewFindCampaign(api),
		NewAuditCampaign(api),
		NewScanOpportunities(api),
		NewCampaignMetrics(api),
		NewGlobalMetrics(api),
	)
}
