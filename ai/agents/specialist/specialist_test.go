package specialist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/hrygo/adspilot/ai/agents"
	"github.com/hrygo/adspilot/ai/agents/tools"
	"github.com/hrygo/adspilot/ai/core/llm"
	"github.com/hrygo/adspilot/ai/session"
	"github.com/hrygo/adspilot/plugin/metaads"
)

// scriptedLLM replays a fixed sequence of tool-loop responses and
// records the message transcript of every call.
type scriptedLLM struct {
	responses   []*llm.ChatResponse
	transcripts [][]llm.Message
	calls       int
}

func (s *scriptedLLM) Chat(_ context.Context, _ []llm.Message) (string, *llm.CallStats, error) {
	return "", nil, errors.New("not used")
}

func (s *scriptedLLM) ChatWithTools(_ context.Context, messages []llm.Message, _ []llm.ToolDescriptor) (*llm.ChatResponse, *llm.CallStats, error) {
	copied := make([]llm.Message, len(messages))
	copy(copied, messages)
	s.transcripts = append(s.transcripts, copied)

	if s.calls >= len(s.responses) {
		return nil, nil, fmt.Errorf("unexpected call %d", s.calls)
	}
	response := s.responses[s.calls]
	s.calls++
	return response, &llm.CallStats{TotalTokens: 5}, nil
}

func (s *scriptedLLM) Warmup(_ context.Context) {}

func toolCall(name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:   "call_" + name,
		Type: "function",
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func echoOp(name string) agent.Operation {
	return agent.NewNativeOperation(name, "echoes input", agent.ObjectSchema(nil),
		func(_ context.Context, input string) (string, error) {
			return `{"echo":` + fmt.Sprintf("%q", input) + `}`, nil
		})
}

func failingOp(name string) agent.Operation {
	return agent.NewNativeOperation(name, "always fails", agent.ObjectSchema(nil),
		func(_ context.Context, _ string) (string, error) {
			return "", errors.New("upstream unavailable")
		})
}

func TestAnswer_ToolThenAnswer(t *testing.T) {
	registry, err := agent.NewRegistry(echoOp("lookup"))
	require.NoError(t, err)

	svc := &scriptedLLM{responses: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{toolCall("lookup", `{"q":"x"}`)}},
		{Content: "  the answer  "},
	}}

	s := New("performance", "prompt", svc, registry)
	result, err := s.Answer(context.Background(), "question", nil)
	require.NoError(t, err)

	assert.Equal(t, "the answer", result.Answer)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, []string{"lookup"}, result.OperationsUsed)
	assert.Equal(t, 10, result.Stats.TotalTokens)

	// The observation is fed back before the second call.
	second := svc.transcripts[1]
	last := second[len(second)-1]
	assert.Contains(t, last.Content, `{"echo":`)
}

func TestAnswer_OperationFailureFedBack(t *testing.T) {
	registry, err := agent.NewRegistry(failingOp("broken"))
	require.NoError(t, err)

	svc := &scriptedLLM{responses: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{toolCall("broken", `{}`)}},
		{Content: "recovered"},
	}}

	s := New("configuration", "prompt", svc, registry)
	result, err := s.Answer(context.Background(), "question", nil)
	require.NoError(t, err)

	assert.Equal(t, "recovered", result.Answer)
	second := svc.transcripts[1]
	last := second[len(second)-1]
	assert.Contains(t, last.Content, "operation broken failed")
	assert.Contains(t, last.Content, "upstream unavailable")
}

func TestAnswer_UnknownOperationFedBack(t *testing.T) {
	registry, err := agent.NewRegistry(echoOp("real_op"))
	require.NoError(t, err)

	svc := &scriptedLLM{responses: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{toolCall("imaginary_op", `{}`)}},
		{Content: "ok"},
	}}

	s := New("performance", "prompt", svc, registry)
	_, err = s.Answer(context.Background(), "question", nil)
	require.NoError(t, err)

	second := svc.transcripts[1]
	last := second[len(second)-1]
	assert.Contains(t, last.Content, `unknown operation "imaginary_op"`)
	assert.Contains(t, last.Content, "real_op")
}

func TestAnswer_IterationCap(t *testing.T) {
	registry, err := agent.NewRegistry(echoOp("lookup"))
	require.NoError(t, err)

	responses := make([]*llm.ChatResponse, MaxIterations)
	for i := range responses {
		responses[i] = &llm.ChatResponse{ToolCalls: []llm.ToolCall{toolCall("lookup", `{}`)}}
	}
	svc := &scriptedLLM{responses: responses}

	s := New("recommendation", "prompt", svc, registry)
	_, err = s.Answer(context.Background(), "question", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxIterations)
	assert.Equal(t, MaxIterations, svc.calls)
}

func TestAnswer_HistoryPrepended(t *testing.T) {
	registry, err := agent.NewRegistry(echoOp("lookup"))
	require.NoError(t, err)

	svc := &scriptedLLM{responses: []*llm.ChatResponse{{Content: "done"}}}
	s := New("performance", "prompt", svc, registry)

	history := []session.Turn{{Question: "hola", Answer: "¿en qué te ayudo?"}}
	_, err = s.Answer(context.Background(), "sigue", history)
	require.NoError(t, err)

	first := svc.transcripts[0]
	require.GreaterOrEqual(t, len(first), 3)
	assert.Contains(t, first[1].Content, "Conversation so far")
	assert.Contains(t, first[1].Content, "¿en qué te ayudo?")
}

// nilAPI satisfies tools.MetaAPI for construction-only tests.
type nilAPI struct{}

func (nilAPI) ListCampaigns(context.Context, string, int) ([]metaads.Campaign, error) {
	return nil, nil
}
func (nilAPI) GetCampaign(context.Context, string) (*metaads.Campaign, error) { return nil, nil }
func (nilAPI) ListAdSets(context.Context, string) ([]metaads.AdSet, error)    { return nil, nil }
func (nilAPI) CampaignInsights(context.Context, string, metaads.Period) (*metaads.Insights, error) {
	return nil, nil
}
func (nilAPI) AccountInsights(context.Context, metaads.Period) ([]metaads.Insights, error) {
	return nil, nil
}
func (nilAPI) AdInsights(context.Context, string, metaads.Period) ([]metaads.Insights, error) {
	return nil, nil
}
func (nilAPI) AdSetInsights(context.Context, string, metaads.Period) ([]metaads.Insights, error) {
	return nil, nil
}

// lookupAPI serves one campaign and records which id the metrics
// operation was asked for.
type lookupAPI struct {
	nilAPI
	metricsID string
}

func (a *lookupAPI) ListCampaigns(context.Context, string, int) ([]metaads.Campaign, error) {
	return []metaads.Campaign{{ID: "c42", Name: "fbads_destino_baqueira", Status: "ACTIVE"}}, nil
}

func (a *lookupAPI) CampaignInsights(_ context.Context, id string, _ metaads.Period) (*metaads.Insights, error) {
	a.metricsID = id
	if id != "c42" {
		return nil, fmt.Errorf("unknown campaign %s", id)
	}
	return &metaads.Insights{
		CampaignID:   id,
		CampaignName: "fbads_destino_baqueira",
		Spend:        "80.00",
		Impressions:  "8000",
		Clicks:       "160",
	}, nil
}

func TestAnswer_NameResolvedBeforeMetrics(t *testing.T) {
	api := &lookupAPI{}
	registry, err := agent.NewRegistry(
		tools.NewFindCampaign(api),
		tools.NewCampaignMetrics(api),
	)
	require.NoError(t, err)

	svc := &scriptedLLM{responses: []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{toolCall("find_campaign_by_name", `{"name":"Baqueira"}`)}},
		{ToolCalls: []llm.ToolCall{toolCall("get_campaign_metrics", `{"campaign_id":"c42","date_preset":"last_7d"}`)}},
		{Content: "Baqueira gastó 80 EUR esta semana."},
	}}

	s := New("performance", "prompt", svc, registry)
	result, err := s.Answer(context.Background(), "gasto de Baqueira esta semana", nil)
	require.NoError(t, err)

	// The lookup runs first and its observation carries the id.
	assert.Equal(t, []string{"find_campaign_by_name", "get_campaign_metrics"}, result.OperationsUsed)

	second := svc.transcripts[1]
	lookup := second[len(second)-1].Content
	assert.Contains(t, lookup, "Result of find_campaign_by_name")
	assert.Contains(t, lookup, `"found":true`)
	assert.Contains(t, lookup, `"id":"c42"`)

	// The metrics call uses the id the lookup returned, and its
	// observation lands after the lookup's in the transcript.
	assert.Equal(t, "c42", api.metricsID)
	third := svc.transcripts[2]
	metrics := third[len(third)-1].Content
	assert.Contains(t, metrics, "Result of get_campaign_metrics")
	assert.Contains(t, metrics, `"spend":80`)
}

func TestBuiltSpecialists(t *testing.T) {
	svc := &scriptedLLM{}
	api := nilAPI{}

	configuration, err := NewConfiguration(svc, api)
	require.NoError(t, err)
	assert.Equal(t, "configuration", configuration.Name())

	performance, err := NewPerformance(svc, api)
	require.NoError(t, err)
	assert.Equal(t, "performance", performance.Name())

	recommendation, err := NewRecommendation(svc, api)
	require.NoError(t, err)
	assert.Equal(t, "recommendation", recommendation.Name())
}
