package metaads

import "strconv"

// Campaign is a campaign row from the Graph API.
type Campaign struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Objective      string `json:"objective"`
	BidStrategy    string `json:"bid_strategy"`
	DailyBudget    string `json:"daily_budget"`    // minor units, as returned by the API
	LifetimeBudget string `json:"lifetime_budget"` // minor units
}

// DailyBudgetEUR returns the daily budget in account currency units.
func (c Campaign) DailyBudgetEUR() float64 {
	return minorUnitsToFloat(c.DailyBudget)
}

// LifetimeBudgetEUR returns the lifetime budget in account currency units.
func (c Campaign) LifetimeBudgetEUR() float64 {
	return minorUnitsToFloat(c.LifetimeBudget)
}

// AdSet is an adset row from the Graph API.
type AdSet struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Status            string    `json:"status"`
	CampaignID        string    `json:"campaign_id"`
	DailyBudget       string    `json:"daily_budget"`
	OptimizationGoal  string    `json:"optimization_goal"`
	Targeting         Targeting `json:"targeting"`
}

// DailyBudgetEUR returns the adset daily budget in account currency units.
func (a AdSet) DailyBudgetEUR() float64 {
	return minorUnitsToFloat(a.DailyBudget)
}

// Targeting is the subset of adset targeting the recommendation
// operations inspect.
type Targeting struct {
	AgeMin              int                  `json:"age_min"`
	AgeMax              int                  `json:"age_max"`
	TargetingAutomation *TargetingAutomation `json:"targeting_automation,omitempty"`
	FlexibleSpec        []map[string]any     `json:"flexible_spec,omitempty"`
}

// TargetingAutomation carries the Advantage+ audience flag.
type TargetingAutomation struct {
	AdvantageAudience int `json:"advantage_audience"`
}

// AdvantageAudienceEnabled reports whether Advantage+ audience is on.
func (t Targeting) AdvantageAudienceEnabled() bool {
	return t.TargetingAutomation != nil && t.TargetingAutomation.AdvantageAudience == 1
}

// Ad is an ad row from the Graph API.
type Ad struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Action is one action (conversion event) row from an insights payload.
type Action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// Insights is one insights row. The Graph API serializes all numbers as
// strings; accessors parse them and fall back to zero on bad input.
type Insights struct {
	CampaignID   string   `json:"campaign_id"`
	CampaignName string   `json:"campaign_name"`
	AdsetID      string   `json:"adset_id"`
	AdsetName    string   `json:"adset_name"`
	AdID         string   `json:"ad_id"`
	AdName       string   `json:"ad_name"`
	Spend        string   `json:"spend"`
	Impressions  string   `json:"impressions"`
	Clicks       string   `json:"clicks"`
	Actions      []Action `json:"actions"`
	ActionValues []Action `json:"action_values"`
	DateStart    string   `json:"date_start"`
	DateStop     string   `json:"date_stop"`
}

// SpendEUR returns spend in account currency units.
func (i Insights) SpendEUR() float64 { return safeFloat(i.Spend) }

// ImpressionCount returns impressions as an integer.
func (i Insights) ImpressionCount() int64 { return safeInt(i.Impressions) }

// ClickCount returns clicks as an integer.
func (i Insights) ClickCount() int64 { return safeInt(i.Clicks) }

// Conversions sums all offsite conversion actions.
func (i Insights) Conversions() int64 {
	var total int64
	for _, a := range i.Actions {
		if isConversionAction(a.ActionType) {
			total += safeInt(a.Value)
		}
	}
	return total
}

// ConversionValue sums the monetary value of all conversion actions.
func (i Insights) ConversionValue() float64 {
	var total float64
	for _, a := range i.ActionValues {
		if isConversionAction(a.ActionType) {
			total += safeFloat(a.Value)
		}
	}
	return total
}

func isConversionAction(actionType string) bool {
	switch actionType {
	case "offsite_conversion", "lead", "purchase", "complete_registration":
		return true
	}
	// Custom conversions arrive as offsite_conversion.custom.<id> or
	// offsite_conversion.fb_pixel_*.
	return len(actionType) > len("offsite_conversion.") && actionType[:len("offsite_conversion.")] == "offsite_conversion."
}

func safeInt(s string) int64 {
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func safeFloat(s string) float64 {
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return 0
}

func minorUnitsToFloat(s string) float64 {
	return safeFloat(s) / 100
}
