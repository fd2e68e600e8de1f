package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/adspilot/ai/agents/classifier"
	"github.com/hrygo/adspilot/ai/agents/coordinator"
	"github.com/hrygo/adspilot/ai/agents/specialist"
	"github.com/hrygo/adspilot/ai/agents/tools"
	"github.com/hrygo/adspilot/ai/core/llm"
	"github.com/hrygo/adspilot/ai/metrics"
	"github.com/hrygo/adspilot/ai/session"
)

// specialist run order for merged answers. Configuration first so the
// reader sees what exists before how it performs and what to change.
var mergeOrder = []coordinator.Specialist{
	coordinator.SpecialistConfiguration,
	coordinator.SpecialistPerformance,
	coordinator.SpecialistRecommendation,
}

var mergeHeadings = map[coordinator.Specialist]string{
	coordinator.SpecialistConfiguration:  "Configuración",
	coordinator.SpecialistPerformance:    "Rendimiento",
	coordinator.SpecialistRecommendation: "Recomendaciones",
}

// Orchestrator is the entry point for one user question.
type Orchestrator struct {
	classifier  *classifier.Classifier
	coordinator *coordinator.Coordinator
	direct      *directAnswerer
	specialists map[coordinator.Specialist]*specialist.Specialist
	memory      *session.Memory
	metrics     *outcomeMetrics
	collector   *metrics.Collector
}

// New wires the full routing pipeline. collector may be nil.
func New(svc llm.Service, api tools.MetaAPI, memory *session.Memory, collector *metrics.Collector) (*Orchestrator, error) {
	configuration, err := specialist.NewConfiguration(svc, api)
	if err != nil {
		return nil, err
	}
	performance, err := specialist.NewPerformance(svc, api)
	if err != nil {
		return nil, err
	}
	recommendation, err := specialist.NewRecommendation(svc, api)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		classifier:  classifier.New(svc),
		coordinator: coordinator.New(svc),
		direct:      &directAnswerer{svc: svc, api: api},
		specialists: map[coordinator.Specialist]*specialist.Specialist{
			coordinator.SpecialistConfiguration:  configuration,
			coordinator.SpecialistPerformance:    performance,
			coordinator.SpecialistRecommendation: recommendation,
		},
		memory:    memory,
		metrics:   newOutcomeMetrics(),
		collector: collector,
	}, nil
}

// Memory exposes the session store so callers can append turns after a
// successful query and clear sessions.
func (o *Orchestrator) Memory() *session.Memory { return o.memory }

// GetMetrics returns the per-outcome accounting snapshot.
func (o *Orchestrator) GetMetrics() map[string]OutcomeStats { return o.metrics.snapshot() }

// Process answers one question. forceCategory, when non-empty, skips
// classification ("direct", "specialist", "multi_specialist"). A panic
// anywhere in the pipeline degrades to an error outcome instead of
// crashing the caller.
func (o *Orchestrator) Process(ctx context.Context, sessionID, question, forceCategory string) (result *QueryResult, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("orchestrator: panic recovered", "panic", r, "session", sessionID)
			result = &QueryResult{
				Answer:  "Lo siento, no pude procesar la consulta. Inténtalo de nuevo.",
				Outcome: OutcomeError,
				Metadata: map[string]any{
					"panic": fmt.Sprintf("%v", r),
				},
			}
			err = nil
		}
		if result != nil {
			o.metrics.record(result.Outcome, time.Since(start))
			o.collector.ObserveQuery(result.Outcome, time.Since(start))
		}
	}()

	if strings.TrimSpace(question) == "" {
		result = &QueryResult{
			Answer:  "La consulta está vacía.",
			Outcome: OutcomeError,
		}
		return result, nil
	}

	history := o.memory.Get(sessionID)

	category, decision, err := o.categorize(ctx, question, history, forceCategory)
	if err != nil {
		result = &QueryResult{Answer: "No pude clasificar la consulta.", Outcome: OutcomeError}
		return result, nil
	}

	// Specialists see the user's question verbatim. The one exception is
	// a continuation, where a short reply like "Baqueira" stands for the
	// request the assistant asked about in the previous turn.
	effective := question
	if decision != nil && decision.Intent == classifier.IntentContinuation && decision.Resolved != "" {
		effective = decision.Resolved
	}

	switch category {
	case classifier.CategoryDirect:
		result = o.runDirect(ctx, question, effective, history, decision)
	case classifier.CategoryMultiSpecialist:
		result = o.runMulti(ctx, effective, history, decision)
	default:
		result = o.runSpecialistPath(ctx, effective, history, decision, false)
	}
	return result, nil
}

func (o *Orchestrator) categorize(ctx context.Context, question string, history []session.Turn, force string) (classifier.Category, *classifier.Decision, error) {
	if force != "" {
		category := classifier.Category(force)
		if !category.Valid() {
			return "", nil, fmt.Errorf("invalid forced category %q", force)
		}
		slog.Debug("orchestrator: classification forced", "category", category)
		return category, nil, nil
	}
	decision, stats, err := o.classifier.Classify(ctx, question, history)
	if err != nil {
		return "", nil, err
	}
	o.addTokens(stats)
	return decision.Category, decision, nil
}

func (o *Orchestrator) runDirect(ctx context.Context, question, effective string, history []session.Turn, decision *classifier.Decision) *QueryResult {
	answer, fallback, err := o.direct.answer(ctx, question, history)
	if err == nil && !fallback {
		return &QueryResult{
			Answer:   answer,
			Outcome:  OutcomeDirect,
			Metadata: routingMetadata(decision, nil),
		}
	}
	if err != nil {
		slog.Warn("orchestrator: direct path failed, rerouting", "error", err)
	}
	result := o.runSpecialistPath(ctx, effective, history, decision, true)
	return result
}

func (o *Orchestrator) runSpecialistPath(ctx context.Context, question string, history []session.Turn, decision *classifier.Decision, fallback bool) *QueryResult {
	choice, stats, err := o.coordinator.Route(ctx, question)
	o.addTokens(stats)
	if err != nil {
		return &QueryResult{Answer: "No pude determinar qué especialista debe responder.", Outcome: OutcomeError}
	}

	if choice.Specialist == coordinator.SpecialistMultiple {
		result := o.runMulti(ctx, question, history, decision)
		if fallback {
			result.Metadata["fallback"] = true
		}
		return result
	}

	s := o.specialists[choice.Specialist]
	answer, runErr := s.Answer(ctx, question, history)
	if runErr != nil {
		slog.Error("orchestrator: specialist failed",
			"specialist", choice.Specialist,
			"error", runErr,
		)
		return &QueryResult{
			Answer:   "El especialista no pudo completar la consulta. Reformúlala o inténtalo más tarde.",
			Outcome:  OutcomeError,
			Metadata: map[string]any{"specialist": string(choice.Specialist)},
		}
	}
	o.addResultTokens(answer)

	metadata := routingMetadata(decision, choice)
	metadata["iterations"] = answer.Iterations
	metadata["operations"] = answer.OperationsUsed
	if fallback {
		metadata["fallback"] = true
	}
	return &QueryResult{
		Answer:   answer.Answer,
		Outcome:  string(choice.Specialist),
		Metadata: metadata,
	}
}

// runMulti executes the specialists the question needs, sequentially,
// and merges their answers in a fixed order. One failing specialist
// does not abort the others; the merge notes the gap.
func (o *Orchestrator) runMulti(ctx context.Context, question string, history []session.Turn, decision *classifier.Decision) *QueryResult {
	wanted := selectSpecialists(question)

	type section struct {
		name   coordinator.Specialist
		answer *specialist.Result
		err    error
	}
	sections := make([]section, 0, len(wanted))
	for _, name := range mergeOrder {
		if !wanted[name] {
			continue
		}
		s := o.specialists[name]
		answer, err := s.Answer(ctx, question, history)
		if err != nil {
			slog.Warn("orchestrator: specialist failed in multi pass",
				"specialist", name,
				"error", err,
			)
		} else {
			o.addResultTokens(answer)
		}
		sections = append(sections, section{name: name, answer: answer, err: err})
	}

	var merged strings.Builder
	succeeded := 0
	ran := make([]string, 0, len(sections))
	for _, sec := range sections {
		ran = append(ran, string(sec.name))
		fmt.Fprintf(&merged, "## %s\n\n", mergeHeadings[sec.name])
		if sec.err != nil {
			merged.WriteString("Esta parte del análisis no está disponible ahora mismo.\n\n")
			continue
		}
		merged.WriteString(sec.answer.Answer)
		merged.WriteString("\n\n")
		succeeded++
	}

	if succeeded == 0 {
		return &QueryResult{
			Answer:   "No pude completar el análisis. Inténtalo de nuevo.",
			Outcome:  OutcomeError,
			Metadata: map[string]any{"specialists": ran},
		}
	}

	metadata := routingMetadata(decision, nil)
	metadata["specialists"] = ran
	return &QueryResult{
		Answer:   strings.TrimSpace(merged.String()),
		Outcome:  OutcomeMultiSpecialist,
		Metadata: metadata,
	}
}

// selectSpecialists picks the multi-pass set by keyword scan. The
// configuration view is always part of a merged answer; performance is
// added for metric wording and recommendation for advice wording. A
// scan that finds nothing beyond configuration still adds performance
// so the merge is worth running.
func selectSpecialists(question string) map[coordinator.Specialist]bool {
	lowered := strings.ToLower(question)
	wanted := map[coordinator.Specialist]bool{
		coordinator.SpecialistConfiguration: true,
	}
	if containsAny(lowered, "gasto", "gastamos", "clicks", "clics", "conversiones", "rendimiento", "ctr", "cpm", "cpa", "roas", "impresiones", "resultados") {
		wanted[coordinator.SpecialistPerformance] = true
	}
	if containsAny(lowered, "recomienda", "recomiendas", "optimiza", "optimizar", "mejora", "mejorar", "sugerencia", "sugieres", "debería", "deberia", "completo", "análisis", "analisis") {
		wanted[coordinator.SpecialistRecommendation] = true
	}
	if len(wanted) == 1 {
		wanted[coordinator.SpecialistPerformance] = true
	}
	return wanted
}

func routingMetadata(decision *classifier.Decision, choice *coordinator.Choice) map[string]any {
	metadata := map[string]any{}
	if decision != nil {
		metadata["category"] = string(decision.Category)
		metadata["classifier_confidence"] = decision.Confidence
	}
	if choice != nil {
		metadata["specialist"] = string(choice.Specialist)
		metadata["coordinator_confidence"] = choice.Confidence
	}
	return metadata
}

func (o *Orchestrator) addTokens(stats *llm.CallStats) {
	if stats == nil {
		return
	}
	o.collector.AddTokens(stats.PromptTokens, stats.CompletionTokens)
}

func (o *Orchestrator) addResultTokens(result *specialist.Result) {
	if result == nil {
		return
	}
	o.collector.AddTokens(result.Stats.PromptTokens, result.Stats.CompletionTokens)
}
