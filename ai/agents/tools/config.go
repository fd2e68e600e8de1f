package tools

import (
	"context"
	"fmt"
	"strings"

	agent "github.com/hrygo/adspilot/ai/agents"
	"github.com/hrygo/adspilot/plugin/destinations"
	"github.com/hrygo/adspilot/plugin/metaads"
)

// campaignSummary is the compact campaign shape rendered to the LLM.
type campaignSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Objective   string `json:"objective,omitempty"`
	Destination string `json:"destination"`
}

func summarizeCampaign(c metaads.Campaign) campaignSummary {
	return campaignSummary{
		ID:          c.ID,
		Name:        c.Name,
		Status:      c.Status,
		Objective:   c.Objective,
		Destination: destinations.Extract(c.Name),
	}
}

// NewListCampaigns lists account campaigns, optionally filtered by status.
func NewListCampaigns(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"list_campaigns",
		"List the ad account's campaigns with id, name, status, objective and destination. Optionally filter by status (ACTIVE, PAUSED).",
		agent.ObjectSchema(map[string]any{
			"status": agent.StringProp("Optional status filter: ACTIVE or PAUSED. Empty returns all campaigns."),
			"limit":  agent.IntProp("Maximum number of campaigns to return. Defaults to 50."),
		}),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				Status string `json:"status"`
				Limit  int    `json:"limit"`
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			campaigns, err := api.ListCampaigns(ctx, strings.ToUpper(args.Status), args.Limit)
			if err != nil {
				return "", err
			}
			summaries := make([]campaignSummary, len(campaigns))
			for i, c := range campaigns {
				summaries[i] = summarizeCampaign(c)
			}
			return renderJSON(map[string]any{
				"count":     len(summaries),
				"campaigns": summaries,
			})
		},
	)
}

// NewFindCampaign resolves a campaign name or destination mention to a
// campaign ID. Always call this before any operation that takes a
// campaign_id when the user gave a name.
func NewFindCampaign(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"find_campaign_by_name",
		"Resolve a campaign name or destination mentioned by the user (e.g. 'Baqueira', 'la campaña de Ibiza') to its campaign id. Use this before requesting metrics or details by id.",
		agent.ObjectSchema(map[string]any{
			"name": agent.StringProp("The campaign name or destination as the user wrote it."),
		}, "name"),
		func(ctx context.Context, input string) (string, error) {
			var args struct {
				Name string `json:"name"`
			}
			if err := decodeInput(input, &args); err != nil {
				return "", err
			}
			if strings.TrimSpace(args.Name) == "" {
				return "", fmt.Errorf("name is required")
			}
			campaigns, err := api.ListCampaigns(ctx, "", 0)
			if err != nil {
				return "", err
			}
			matches := matchCampaigns(campaigns, args.Name)
			if len(matches) == 0 {
				return renderJSON(map[string]any{
					"found":     false,
					"query":     args.Name,
					"available": campaignNames(campaigns),
				})
			}
			summaries := make([]campaignSummary, len(matches))
			for i, c := range matches {
				summaries[i] = summarizeCampaign(c)
			}
			return renderJSON(map[string]any{
				"found":    true,
				"query":    args.Name,
				"matches":  summaries,
				"campaign": summaries[0],
			})
		},
	)
}

// matchCampaigns finds campaigns whose name contains the query or whose
// destination matches the destination the query mentions.
func matchCampaigns(campaigns []metaads.Campaign, query string) []metaads.Campaign {
	lowered := strings.ToLower(strings.TrimSpace(query))
	var matched []metaads.Campaign
	for _, c := range campaigns {
		if strings.Contains(strings.ToLower(c.Name), lowered) {
			matched = append(matched, c)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	dest, ok := destinations.Resolve(lowered)
	if !ok {
		return nil
	}
	for _, c := range campaigns {
		if destinations.Extract(c.Name) == dest {
			matched = append(matched, c)
		}
	}
	return matched
}

func campaignNames(campaigns []metaads.Campaign) []string {
	names := make([]string, len(campaigns))
	for i, c := range campaigns {
		names[i] = c.Name
	}
	return names
}

// NewCampaignDetails returns a campaign's full configuration together
// with its adsets.
func NewCampaignDetails(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_campaign_details",
		"Get a campaign's full configuration (status, objective, bid strategy, budgets) and its adsets with targeting and optimization goal.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("The campaign id, from find_campaign_by_name or list_campaigns."),
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
			adsetViews := make([]map[string]any, len(adsets))
			for i, a := range adsets {
				adsetViews[i] = map[string]any{
					"id":                 a.ID,
					"name":               a.Name,
					"status":             a.Status,
					"optimization_goal":  a.OptimizationGoal,
					"daily_budget":       a.DailyBudgetEUR(),
					"age_range":          fmt.Sprintf("%d-%d", a.Targeting.AgeMin, a.Targeting.AgeMax),
					"advantage_audience": a.Targeting.AdvantageAudienceEnabled(),
				}
			}
			return renderJSON(map[string]any{
				"campaign": map[string]any{
					"id":              campaign.ID,
					"name":            campaign.Name,
					"status":          campaign.Status,
					"objective":       campaign.Objective,
					"bid_strategy":    campaign.BidStrategy,
					"daily_budget":    campaign.DailyBudgetEUR(),
					"lifetime_budget": campaign.LifetimeBudgetEUR(),
					"destination":     destinations.Extract(campaign.Name),
				},
				"adsets": adsetViews,
			})
		},
	)
}

// NewCampaignBudget reports the budget configuration of a campaign,
// including per-adset budgets when the budget lives at adset level.
func NewCampaignBudget(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_campaign_budget",
		"Get a campaign's daily and lifetime budget. When the campaign budget is zero, budgets are set per adset and the adset budgets are included.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("The campaign id."),
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
			result := map[string]any{
				"campaign_id":     campaign.ID,
				"campaign_name":   campaign.Name,
				"daily_budget":    campaign.DailyBudgetEUR(),
				"lifetime_budget": campaign.LifetimeBudgetEUR(),
				"budget_level":    "campaign",
			}
			if campaign.DailyBudgetEUR() == 0 && campaign.LifetimeBudgetEUR() == 0 {
				adsets, err := api.ListAdSets(ctx, args.CampaignID)
				if err != nil {
					return "", err
				}
				budgets := make([]map[string]any, 0, len(adsets))
				var total float64
				for _, a := range adsets {
					budget := a.DailyBudgetEUR()
					total += budget
					budgets = append(budgets, map[string]any{
						"adset_id":     a.ID,
						"adset_name":   a.Name,
						"daily_budget": budget,
					})
				}
				result["budget_level"] = "adset"
				result["adset_budgets"] = budgets
				result["total_daily_budget"] = total
			}
			return renderJSON(result)
		},
	)
}

// NewBidStrategy reports a campaign's bid strategy.
func NewBidStrategy(api MetaAPI) agent.Operation {
	return agent.NewNativeOperation(
		"get_bid_strategy",
		"Get a campaign's bid strategy (e.g. LOWEST_COST_WITHOUT_CAP, COST_CAP) and optimization goals of its adsets.",
		agent.ObjectSchema(map[string]any{
			"campaign_id": agent.StringProp("The campaign id."),
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
			goals := make([]map[string]string, len(adsets))
			for i, a := range adsets {
				goals[i] = map[string]string{
					"adset_name":        a.Name,
					"optimization_goal": a.OptimizationGoal,
				}
			}
			return renderJSON(map[string]any{
				"campaign_id":        campaign.ID,
				"campaign_name":      campaign.Name,
				"bid_strategy":       campaign.BidStrategy,
				"objective":          campaign.Objective,
				"optimization_goals": goals,
			})
		},
	)
}

// ConfigurationRegistry builds the configuration specialist's operation set.
func ConfigurationRegistry(api MetaAPI) (*agent.Registry, error) {
	return agent.NewRegistry(
		NewFindCampaign(api),
		NewListCampaigns(api),
		NewCampaignDetails(api),
		NewCampaignBudget(api),
		NewBidStrategy(api),
	)
}
