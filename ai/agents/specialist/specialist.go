// Package specialist runs the bounded tool-use loop: a specialist
// answers one question by repeatedly letting the LLM invoke its
// operations until it produces a final text answer or the iteration
// cap is hit.
package specialist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	agent "github.com/hrygo/adspilot/ai/agents"
	"github.com/hrygo/adspilot/ai/core/llm"
	"github.com/hrygo/adspilot/ai/session"
)

// MaxIterations bounds the tool-use loop. Hitting the cap is an error
// distinct from operation failures: operation failures are fed back to
// the model, the cap aborts the loop.
const MaxIterations = 10

// ErrMaxIterations reports a loop that never converged to an answer.
var ErrMaxIterations = errors.New("specialist reached the iteration limit without a final answer")

// Result is one specialist's answer with loop accounting.
type Result struct {
	Answer         string
	Specialist     string
	Iterations     int
	OperationsUsed []string
	Stats          llm.CallStats
}

// Specialist owns one prompt and one operation registry.
type Specialist struct {
	svc           llm.Service
	registry      *agent.Registry
	name          string
	prompt        string
	maxIterations int
}

// New builds a specialist. The prompt states the specialist's scope and
// operation policy; the registry is the full set of operations it may call.
func New(name, prompt string, svc llm.Service, registry *agent.Registry) *Specialist {
	return &Specialist{
		svc:           svc,
		registry:      registry,
		name:          name,
		prompt:        prompt,
		maxIterations: MaxIterations,
	}
}

// Name returns the specialist's routing name.
func (s *Specialist) Name() string { return s.name }

// Answer runs the loop for one question. Conversation history, when
// present, is prepended so follow-ups resolve against it.
func (s *Specialist) Answer(ctx context.Context, question string, history []session.Turn) (*Result, error) {
	descriptors, err := s.registry.Descriptors()
	if err != nil {
		return nil, err
	}

	messages := []llm.Message{llm.SystemPrompt(s.prompt)}
	if len(history) > 0 {
		messages = append(messages, llm.SystemPrompt(
			"Conversation so far:\n"+session.RenderContext(history)))
	}
	messages = append(messages, llm.UserMessage(question))

	result := &Result{Specialist: s.name}
	start := time.Now()

	for iteration := 1; iteration <= s.maxIterations; iteration++ {
		result.Iterations = iteration

		response, stats, err := s.svc.ChatWithTools(ctx, messages, descriptors)
		if err != nil {
			return nil, fmt.Errorf("specialist %s: llm call: %w", s.name, err)
		}
		if stats != nil {
			result.Stats.PromptTokens += stats.PromptTokens
			result.Stats.CompletionTokens += stats.CompletionTokens
			result.Stats.TotalTokens += stats.TotalTokens
			result.Stats.CacheReadTokens += stats.CacheReadTokens
		}

		if len(response.ToolCalls) == 0 {
			result.Answer = strings.TrimSpace(response.Content)
			result.Stats.TotalDurationMs = time.Since(start).Milliseconds()
			slog.Debug("specialist: answered",
				"specialist", s.name,
				"iterations", iteration,
				"operations", result.OperationsUsed,
			)
			return result, nil
		}

		for _, call := range response.ToolCalls {
			observation := s.invoke(ctx, call)
			result.OperationsUsed = append(result.OperationsUsed, call.Function.Name)
			messages = append(messages,
				llm.AssistantMessage(fmt.Sprintf("Called %s with %s", call.Function.Name, call.Function.Arguments)),
				llm.UserMessage(fmt.Sprintf("Result of %s:\n%s", call.Function.Name, observation)),
			)
		}
	}

	result.Stats.TotalDurationMs = time.Since(start).Milliseconds()
	return nil, fmt.Errorf("specialist %s after %d iterations: %w", s.name, s.maxIterations, ErrMaxIterations)
}

// invoke executes one requested operation. Failures never abort the
// loop; the error text becomes the observation so the model can adjust.
func (s *Specialist) invoke(ctx context.Context, call llm.ToolCall) string {
	name := call.Function.Name
	op, ok := s.registry.Lookup(name)
	if !ok {
		slog.Warn("specialist: unknown operation requested", "specialist", s.name, "operation", name)
		return fmt.Sprintf("unknown operation %q; available operations: %s",
			name, strings.Join(s.registry.Names(), ", "))
	}

	start := time.Now()
	output, err := op.Run(ctx, call.Function.Arguments)
	if err != nil {
		slog.Warn("specialist: operation failed",
			"specialist", s.name,
			"operation", name,
			"error", err,
		)
		return fmt.Sprintf("operation %s failed: %v", name, err)
	}

	slog.Debug("specialist: operation completed",
		"specialist", s.name,
		"operation", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return output
}
