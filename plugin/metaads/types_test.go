package metaads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsights_StringNumbers(t *testing.T) {
	row := Insights{
		Spend:       "123.45",
		Impressions: "12345",
		Clicks:      "678",
		Actions: []Action{
			{ActionType: "offsite_conversion.fb_pixel_lead", Value: "7"},
			{ActionType: "lead", Value: "3"},
			{ActionType: "link_click", Value: "99"}, // not a conversion
		},
		ActionValues: []Action{
			{ActionType: "purchase", Value: "250.5"},
		},
	}

	assert.InDelta(t, 123.45, row.SpendEUR(), 1e-9)
	assert.Equal(t, int64(12345), row.ImpressionCount())
	assert.Equal(t, int64(678), row.ClickCount())
	assert.Equal(t, int64(10), row.Conversions())
	assert.InDelta(t, 250.5, row.ConversionValue(), 1e-9)
}

func TestInsights_MalformedNumbers(t *testing.T) {
	row := Insights{Spend: "n/a", Impressions: "", Clicks: "12.0"}
	assert.Zero(t, row.SpendEUR())
	assert.Zero(t, row.ImpressionCount())
	assert.Equal(t, int64(12), row.ClickCount())
}

func TestCampaign_Budgets(t *testing.T) {
	c := Campaign{DailyBudget: "2500", LifetimeBudget: ""}
	assert.InDelta(t, 25.0, c.DailyBudgetEUR(), 1e-9)
	assert.Zero(t, c.LifetimeBudgetEUR())
}

func TestPeriod_Validate(t *testing.T) {
	assert.NoError(t, Period{Preset: "last_7d"}.Validate())
	assert.NoError(t, Period{Since: "2026-08-01", Until: "2026-08-07"}.Validate())
	assert.Error(t, Period{Preset: "last_week"}.Validate())
	assert.Error(t, Period{Since: "2026-08-01"}.Validate())
	assert.Error(t, Period{}.Validate())
}

func TestTargeting_AdvantageAudience(t *testing.T) {
	on := Targeting{TargetingAutomation: &TargetingAutomation{AdvantageAudience: 1}}
	off := Targeting{TargetingAutomation: &TargetingAutomation{AdvantageAudience: 0}}
	var unset Targeting

	assert.True(t, on.AdvantageAudienceEnabled())
	assert.False(t, off.AdvantageAudienceEnabled())
	assert.False(t, unset.AdvantageAudienceEnabled())
}
