// Package classifier decides how a user question is answered: directly,
// by one specialist, or by several specialists in sequence.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/adspilot/ai/core/llm"
	"github.com/hrygo/adspilot/ai/session"
)

// Category is the routing outcome of classification.
type Category string

const (
	// CategoryDirect answers without any specialist: greetings, campaign
	// listings, questions a single lookup resolves.
	CategoryDirect Category = "direct"

	// CategorySpecialist routes to exactly one specialist.
	CategorySpecialist Category = "specialist"

	// CategoryMultiSpecialist routes to several specialists whose answers
	// are merged.
	CategoryMultiSpecialist Category = "multi_specialist"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryDirect, CategorySpecialist, CategoryMultiSpecialist:
		return true
	}
	return false
}

// IntentContinuation marks a short reply that answers a question the
// assistant asked in the previous turn.
const IntentContinuation = "continuation"

// Decision is the structured classification result. Intent is a short
// label describing the kind of request (continuation, ad_analysis,
// listing, metrics, configuration, recommendation, report). Resolved is
// only set for continuations: the full request the short reply stands
// for, resolved against the conversation.
type Decision struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Intent     string   `json:"intent,omitempty"`
	Resolved   string   `json:"resolved_question,omitempty"`
}

const systemPrompt = `You classify questions about Meta advertising campaigns into one routing category.

Categories:
- "direct": greetings, thanks, questions about what the assistant can do, and bare listing requests ("lista las campañas", "qué campañas hay") that need no analysis.
- "specialist": the question targets one concern: configuration of a campaign (budget, status, targeting), OR performance numbers (gasto, clicks, CTR, CPA, conversiones) of a campaign, ad or period, OR asks for a recommendation on one aspect.
- "multi_specialist": the question needs more than one concern at once: full campaign reviews ("análisis completo"), questions mixing configuration and performance, or broad "how is everything going and what should I change" requests.

Rules, in priority order:
1. If the conversation context shows the user is answering a question the assistant just asked, or is continuing the previous topic with a short reply ("Baqueira", "y la de Ibiza?", "sí"), the category is "specialist", never "direct". Set intent to "continuation" and resolved_question to the full request the reply stands for.
2. Any question that mentions ads or anuncios of a campaign is at least "specialist" with intent "ad_analysis"; ad-level questions are never "direct".
3. Naming an entity (campaign, destination, ad) together with a metric or config attribute is "specialist".
4. A question that carries both performance wording (gasto, CTR, conversiones) and optimization wording (mejorar, optimizar, recomendar) is "multi_specialist".
5. Otherwise, when in doubt between direct and specialist, prefer "specialist".

Answer ONLY with JSON:
{"category": "direct|specialist|multi_specialist", "confidence": 0.0-1.0, "reasoning": "one sentence", "intent": "continuation|ad_analysis|listing|metrics|configuration|recommendation|report", "resolved_question": "only for continuation: the resolved request"}`

// Classifier is the first routing stage.
type Classifier struct {
	svc llm.Service
}

func New(svc llm.Service) *Classifier {
	return &Classifier{svc: svc}
}

// Classify routes a question. History, when present, lets short
// follow-ups inherit the conversation's intent. A malformed model reply
// falls back to the specialist path rather than failing the query.
func (c *Classifier) Classify(ctx context.Context, question string, history []session.Turn) (*Decision, *llm.CallStats, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil, fmt.Errorf("empty question")
	}

	user := question
	if len(history) > 0 {
		user = fmt.Sprintf("Conversation so far:\n%s\n\nNew question: %s", session.RenderContext(history), question)
	}

	var decision Decision
	stats, err := llm.Decide(ctx, c.svc, []llm.Message{
		llm.SystemPrompt(systemPrompt),
		llm.UserMessage(user),
	}, &decision)
	if err != nil {
		slog.Warn("classifier: falling back to specialist", "error", err)
		return &Decision{
			Category:   CategorySpecialist,
			Confidence: 0.3,
			Reasoning:  "classification unavailable, defaulting to specialist",
		}, stats, nil
	}

	if !decision.Category.Valid() {
		slog.Warn("classifier: invalid category from model", "category", decision.Category)
		decision.Category = CategorySpecialist
		decision.Confidence = 0.3
	}

	slog.Debug("classifier: decision",
		"category", decision.Category,
		"confidence", decision.Confidence,
		"intent", decision.Intent,
	)
	return &decision, stats, nil
}
