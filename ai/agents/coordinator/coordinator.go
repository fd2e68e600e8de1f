// Package coordinator is the second routing stage: given a question the
// classifier sent to the specialist path, it picks which specialist
// (or several) should handle it.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/adspilot/ai/core/llm"
)

// Specialist names the agents the coordinator can dispatch to.
type Specialist string

const (
	SpecialistConfiguration  Specialist = "configuration"
	SpecialistPerformance    Specialist = "performance"
	SpecialistRecommendation Specialist = "recommendation"

	// SpecialistMultiple means the question spans concerns and the
	// orchestrator should run a multi-specialist pass instead.
	SpecialistMultiple Specialist = "multiple"
)

func (s Specialist) Valid() bool {
	switch s {
	case SpecialistConfiguration, SpecialistPerformance, SpecialistRecommendation, SpecialistMultiple:
		return true
	}
	return false
}

// Choice is the structured coordination result.
type Choice struct {
	Specialist Specialist `json:"specialist"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
}

const systemPrompt = `You route questions about Meta advertising campaigns to one specialist.

Specialists:
- "configuration": how campaigns are set up. Status, objective, budget amounts, bid strategy, targeting, adset structure, what campaigns exist.
- "performance": how campaigns performed. Spend, impressions, clicks, conversions, CTR, CPM, CPC, CPA, ROAS, comparisons between periods, ads or destinations, funnel counts.
- "recommendation": what to change. Optimization advice, audits, "qué debería mejorar", opportunity scans.
- "multiple": the question genuinely needs two or more of the above at once.

Rules:
1. Any question about ads (anuncios) of a campaign is "performance", even when phrased as configuration ("qué anuncios tiene activos la campaña").
2. Asking for a number or a comparison is "performance". Asking what is configured is "configuration". Asking what to do about it is "recommendation".
3. Use "multiple" sparingly: only when the question explicitly wants both the setup and the numbers, or a full review.

Answer ONLY with JSON:
{"specialist": "configuration|performance|recommendation|multiple", "confidence": 0.0-1.0, "reasoning": "one sentence"}`

// Coordinator picks a specialist for one question.
type Coordinator struct {
	svc llm.Service
}

func New(svc llm.Service) *Coordinator {
	return &Coordinator{svc: svc}
}

// Route decides which specialist handles the question. Ad mentions are
// forced onto the performance specialist regardless of the model's
// choice. A malformed reply falls back to performance.
func (c *Coordinator) Route(ctx context.Context, question string) (*Choice, *llm.CallStats, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil, fmt.Errorf("empty question")
	}

	var choice Choice
	stats, err := llm.Decide(ctx, c.svc, []llm.Message{
		llm.SystemPrompt(systemPrompt),
		llm.UserMessage(question),
	}, &choice)
	if err != nil {
		slog.Warn("coordinator: falling back to performance", "error", err)
		choice = Choice{
			Specialist: SpecialistPerformance,
			Confidence: 0.3,
			Reasoning:  "coordination unavailable, defaulting to performance",
		}
		return &choice, stats, nil
	}

	if !choice.Specialist.Valid() {
		slog.Warn("coordinator: invalid specialist from model", "specialist", choice.Specialist)
		choice.Specialist = SpecialistPerformance
		choice.Confidence = 0.3
	}

	if mentionsAds(question) && choice.Specialist != SpecialistPerformance && choice.Specialist != SpecialistMultiple {
		slog.Debug("coordinator: ad mention overrides routing", "from", choice.Specialist)
		choice.Specialist = SpecialistPerformance
		choice.Reasoning = "ad-level questions are handled by the performance specialist"
	}

	slog.Debug("coordinator: choice",
		"specialist", choice.Specialist,
		"confidence", choice.Confidence,
	)
	return &choice, stats, nil
}

// mentionsAds detects ad-level wording the routing rules treat as a
// hard performance signal.
func mentionsAds(question string) bool {
	lowered := strings.ToLower(question)
	for _, kw := range []string{"anuncio", "anuncios", " ad ", " ads ", "creativo", "creativos"} {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return strings.HasPrefix(lowered, "ad ") || strings.HasPrefix(lowered, "ads ") ||
		strings.HasSuffix(lowered, " ad") || strings.HasSuffix(lowered, " ads")
}
