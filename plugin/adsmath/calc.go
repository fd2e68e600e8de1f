// Package adsmath holds the metric arithmetic shared by the performance
// and recommendation operations. All ratios guard against zero
// denominators and return 0 instead of dividing.
package adsmath

// CTR returns the click-through rate as a percentage (0-100).
func CTR(clicks, impressions int64) float64 {
	if impressions == 0 {
		return 0
	}
	return float64(clicks) / float64(impressions) * 100
}

// CPM returns the cost per thousand impressions.
func CPM(spend float64, impressions int64) float64 {
	if impressions == 0 {
		return 0
	}
	return spend / float64(impressions) * 1000
}

// CPC returns the cost per click.
func CPC(spend float64, clicks int64) float64 {
	if clicks == 0 {
		return 0
	}
	return spend / float64(clicks)
}

// CPA returns the cost per conversion.
func CPA(spend float64, conversions int64) float64 {
	if conversions == 0 {
		return 0
	}
	return spend / float64(conversions)
}

// ConversionRate returns conversions/clicks as a percentage (0-100).
func ConversionRate(conversions, clicks int64) float64 {
	if clicks == 0 {
		return 0
	}
	return float64(conversions) / float64(clicks) * 100
}

// ROAS returns revenue/spend.
func ROAS(revenue, spend float64) float64 {
	if spend == 0 {
		return 0
	}
	return revenue / spend
}

// PercentDelta returns (current-previous)/previous*100. A previous
// value of 0 yields a 0% delta rather than a division by zero; this is
// the contract the period-comparison operations rely on.
func PercentDelta(previous, current float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// LowerIsBetter reports whether a metric improves as it decreases.
// Cost metrics (cpa, cpc, cpm, spend) rank ascending for "best";
// volume and rate metrics rank descending.
func LowerIsBetter(metric string) bool {
	switch metric {
	case "cpa", "cpc", "cpm", "spend":
		return true
	default:
		return false
	}
}
