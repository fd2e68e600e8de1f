package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/adspilot/ai/agents/coordinator"
	"github.com/hrygo/adspilot/ai/core/llm"
	"github.com/hrygo/adspilot/ai/session"
	"github.com/hrygo/adspilot/plugin/metaads"
)

// fakeLLM delegates to configurable functions.
type fakeLLM struct {
	chat      func(messages []llm.Message) (string, error)
	chatTools func(messages []llm.Message) (*llm.ChatResponse, error)
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	text, err := f.chat(messages)
	return text, &llm.CallStats{}, err
}

func (f *fakeLLM) ChatWithTools(_ context.Context, messages []llm.Message, _ []llm.ToolDescriptor) (*llm.ChatResponse, *llm.CallStats, error) {
	response, err := f.chatTools(messages)
	return response, &llm.CallStats{}, err
}

func (f *fakeLLM) Warmup(_ context.Context) {}

// fakeAPI serves a fixed campaign list.
type fakeAPI struct{}

func (fakeAPI) ListCampaigns(_ context.Context, status string, _ int) ([]metaads.Campaign, error) {
	campaigns := []metaads.Campaign{
		{ID: "c1", Name: "fbads_destino_baqueira", Status: "ACTIVE"},
		{ID: "c2", Name: "fbads_destino_ibiza", Status: "PAUSED"},
	}
	if status == "" {
		return campaigns, nil
	}
	var filtered []metaads.Campaign
	for _, c := range campaigns {
		if c.Status == status {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (fakeAPI) GetCampaign(_ context.Context, id string) (*metaads.Campaign, error) {
	return &metaads.Campaign{ID: id, Name: "fbads_destino_baqueira"}, nil
}
func (fakeAPI) ListAdSets(context.Context, string) ([]metaads.AdSet, error) { return nil, nil }
func (fakeAPI) CampaignInsights(context.Context, string, metaads.Period) (*metaads.Insights, error) {
	return nil, nil
}
func (fakeAPI) AccountInsights(context.Context, metaads.Period) ([]metaads.Insights, error) {
	return []metaads.Insights{
		{CampaignID: "c1", Spend: "100.00", Impressions: "10000", Clicks: "200"},
		{CampaignID: "c2", Spend: "50.00", Impressions: "5000", Clicks: "50"},
	}, nil
}
func (fakeAPI) AdInsights(context.Context, string, metaads.Period) ([]metaads.Insights, error) {
	return nil, nil
}
func (fakeAPI) AdSetInsights(context.Context, string, metaads.Period) ([]metaads.Insights, error) {
	return nil, nil
}

func newTestOrchestrator(t *testing.T, svc llm.Service) *Orchestrator {
	t.Helper()
	o, err := New(svc, fakeAPI{}, session.NewMemory(), nil)
	require.NoError(t, err)
	return o
}

func TestProcess_DirectListing(t *testing.T) {
	svc := &fakeLLM{
		chat:      func([]llm.Message) (string, error) { return "", errors.New("not used") },
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) { return nil, errors.New("not used") },
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "lista todas las campañas", "direct")
	require.NoError(t, err)

	assert.Equal(t, OutcomeDirect, result.Outcome)
	assert.Contains(t, result.Answer, "fbads_destino_baqueira")
	assert.Contains(t, result.Answer, "2 campañas")
}

func TestProcess_DirectActiveFilter(t *testing.T) {
	svc := &fakeLLM{
		chat:      func([]llm.Message) (string, error) { return "", errors.New("not used") },
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) { return nil, errors.New("not used") },
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "lista las campañas activas", "direct")
	require.NoError(t, err)

	assert.Equal(t, OutcomeDirect, result.Outcome)
	assert.Contains(t, result.Answer, "baqueira")
	assert.NotContains(t, result.Answer, "ibiza")
}

func TestProcess_DirectCount(t *testing.T) {
	svc := &fakeLLM{
		chat:      func([]llm.Message) (string, error) { return "", errors.New("not used") },
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) { return nil, errors.New("not used") },
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "¿cuántas campañas tengo?", "direct")
	require.NoError(t, err)

	assert.Equal(t, OutcomeDirect, result.Outcome)
	assert.Contains(t, result.Answer, "2 campañas")
}

func TestProcess_DirectMetricsSnapshot(t *testing.T) {
	svc := &fakeLLM{
		chat:      func([]llm.Message) (string, error) { return "", errors.New("not used") },
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) { return nil, errors.New("not used") },
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "dame un resumen de métricas", "direct")
	require.NoError(t, err)

	assert.Equal(t, OutcomeDirect, result.Outcome)
	assert.Contains(t, result.Answer, "150.00 EUR")
	assert.Contains(t, result.Answer, "Impresiones: 15000")
	assert.Contains(t, result.Answer, "Clics: 250")
}

func TestProcess_SpecialistPath(t *testing.T) {
	svc := &fakeLLM{
		chat: func(messages []llm.Message) (string, error) {
			system := messages[0].Content
			if strings.Contains(system, "classify") || strings.Contains(system, "routing category") {
				return `{"category":"specialist","confidence":0.9,"reasoning":"metric"}`, nil
			}
			return `{"specialist":"performance","confidence":0.9,"reasoning":"spend"}`, nil
		},
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Content: "Gastaste 120 EUR."}, nil
		},
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "¿cuánto gastamos ayer?", "")
	require.NoError(t, err)

	assert.Equal(t, OutcomePerformance, result.Outcome)
	assert.Equal(t, "Gastaste 120 EUR.", result.Answer)
	assert.Equal(t, "performance", result.Metadata["specialist"])
}

func TestProcess_DirectUnmatchedFallsBackToSpecialist(t *testing.T) {
	svc := &fakeLLM{
		chat: func([]llm.Message) (string, error) {
			return `{"specialist":"performance","confidence":0.9,"reasoning":"spend"}`, nil
		},
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Content: "Gastaste 42 EUR en Baqueira."}, nil
		},
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "¿cuánto gasté en Baqueira ayer?", "direct")
	require.NoError(t, err)

	// A metric question misrouted to the direct path must not be
	// answered without tools.
	assert.Equal(t, OutcomePerformance, result.Outcome)
	assert.Equal(t, true, result.Metadata["fallback"])
	assert.Equal(t, "Gastaste 42 EUR en Baqueira.", result.Answer)
}

func TestProcess_DirectSmalltalk(t *testing.T) {
	svc := &fakeLLM{
		chat: func([]llm.Message) (string, error) {
			return "¡Hola! ¿En qué te ayudo con tus campañas?", nil
		},
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) {
			return nil, errors.New("not used")
		},
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "hola, buenos días", "direct")
	require.NoError(t, err)

	assert.Equal(t, OutcomeDirect, result.Outcome)
	assert.Contains(t, result.Answer, "Hola")
}

func TestProcess_SpecialistSeesQuestionNotIntentLabel(t *testing.T) {
	const question = "¿cuánto gastó la campaña de Baqueira esta semana?"

	var coordinatorUser, specialistUser string
	svc := &fakeLLM{
		chat: func(messages []llm.Message) (string, error) {
			system := messages[0].Content
			if strings.Contains(system, "classify") || strings.Contains(system, "routing category") {
				return `{"category":"specialist","confidence":0.9,"reasoning":"metric","intent":"metrics"}`, nil
			}
			coordinatorUser = messages[len(messages)-1].Content
			return `{"specialist":"performance","confidence":0.9,"reasoning":"spend"}`, nil
		},
		chatTools: func(messages []llm.Message) (*llm.ChatResponse, error) {
			specialistUser = messages[len(messages)-1].Content
			return &llm.ChatResponse{Content: "Gastaste 120 EUR."}, nil
		},
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", question, "")
	require.NoError(t, err)

	assert.Equal(t, OutcomePerformance, result.Outcome)
	assert.Equal(t, question, coordinatorUser)
	assert.Equal(t, question, specialistUser)
}

func TestProcess_ContinuationUsesResolvedQuestion(t *testing.T) {
	var coordinatorUser string
	svc := &fakeLLM{
		chat: func(messages []llm.Message) (string, error) {
			system := messages[0].Content
			if strings.Contains(system, "classify") || strings.Contains(system, "routing category") {
				return `{"category":"specialist","confidence":0.9,"reasoning":"answers the pending question","intent":"continuation","resolved_question":"métricas de la campaña de Baqueira"}`, nil
			}
			coordinatorUser = messages[len(messages)-1].Content
			return `{"specialist":"performance","confidence":0.9,"reasoning":"spend"}`, nil
		},
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Content: "Gastó 80 EUR."}, nil
		},
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "Baqueira", "")
	require.NoError(t, err)

	assert.Equal(t, OutcomePerformance, result.Outcome)
	assert.Equal(t, "métricas de la campaña de Baqueira", coordinatorUser)
}

func TestProcess_MultiMergeOrder(t *testing.T) {
	svc := &fakeLLM{
		chat: func([]llm.Message) (string, error) { return "", errors.New("not used") },
		chatTools: func(messages []llm.Message) (*llm.ChatResponse, error) {
			system := messages[0].Content
			switch {
			case strings.Contains(system, "configuration specialist"):
				return &llm.ChatResponse{Content: "estado de la configuración"}, nil
			case strings.Contains(system, "performance specialist"):
				return &llm.ChatResponse{Content: "números de rendimiento"}, nil
			default:
				return &llm.ChatResponse{Content: "lista de recomendaciones"}, nil
			}
		},
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1",
		"análisis completo del rendimiento y qué debería mejorar", "multi_specialist")
	require.NoError(t, err)

	assert.Equal(t, OutcomeMultiSpecialist, result.Outcome)
	iConfig := strings.Index(result.Answer, "## Configuración")
	iPerf := strings.Index(result.Answer, "## Rendimiento")
	iRec := strings.Index(result.Answer, "## Recomendaciones")
	require.True(t, iConfig >= 0 && iPerf >= 0 && iRec >= 0, result.Answer)
	assert.Less(t, iConfig, iPerf)
	assert.Less(t, iPerf, iRec)
	assert.Equal(t, []string{"configuration", "performance", "recommendation"}, result.Metadata["specialists"])
}

func TestProcess_MultiErrorIsolation(t *testing.T) {
	svc := &fakeLLM{
		chat: func([]llm.Message) (string, error) { return "", errors.New("not used") },
		chatTools: func(messages []llm.Message) (*llm.ChatResponse, error) {
			if strings.Contains(messages[0].Content, "configuration specialist") {
				return nil, errors.New("provider down")
			}
			return &llm.ChatResponse{Content: "números de rendimiento"}, nil
		},
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "revisión completa del rendimiento", "multi_specialist")
	require.NoError(t, err)

	assert.Equal(t, OutcomeMultiSpecialist, result.Outcome)
	assert.Contains(t, result.Answer, "no está disponible")
	assert.Contains(t, result.Answer, "números de rendimiento")
}

func TestProcess_PanicBecomesErrorOutcome(t *testing.T) {
	svc := &fakeLLM{
		chat: func([]llm.Message) (string, error) {
			return `{"specialist":"performance","confidence":0.9,"reasoning":"x"}`, nil
		},
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) {
			panic("boom")
		},
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "¿cuánto gastamos?", "specialist")
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, result.Outcome)
	assert.NotEmpty(t, result.Answer)
}

func TestProcess_EmptyQuestion(t *testing.T) {
	svc := &fakeLLM{
		chat:      func([]llm.Message) (string, error) { return "", nil },
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) { return nil, nil },
	}
	o := newTestOrchestrator(t, svc)

	result, err := o.Process(context.Background(), "s1", "   ", "")
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, result.Outcome)
}

func TestGetMetrics(t *testing.T) {
	svc := &fakeLLM{
		chat:      func([]llm.Message) (string, error) { return "", errors.New("not used") },
		chatTools: func([]llm.Message) (*llm.ChatResponse, error) { return nil, errors.New("not used") },
	}
	o := newTestOrchestrator(t, svc)

	for i := 0; i < 3; i++ {
		_, err := o.Process(context.Background(), "s1", "lista las campañas", "direct")
		require.NoError(t, err)
	}

	stats := o.GetMetrics()
	require.Contains(t, stats, OutcomeDirect)
	assert.EqualValues(t, 3, stats[OutcomeDirect].Count)
	assert.InDelta(t, stats[OutcomeDirect].TotalTime/3, stats[OutcomeDirect].AvgTime, 0.0001)
}

func TestSelectSpecialists(t *testing.T) {
	tests := []struct {
		question string
		want     []coordinator.Specialist
	}{
		{
			question: "revisa la configuración de la campaña",
			want:     []coordinator.Specialist{coordinator.SpecialistConfiguration, coordinator.SpecialistPerformance},
		},
		{
			question: "configuración y gasto de la campaña",
			want:     []coordinator.Specialist{coordinator.SpecialistConfiguration, coordinator.SpecialistPerformance},
		},
		{
			question: "análisis completo: rendimiento y qué optimizar",
			want: []coordinator.Specialist{
				coordinator.SpecialistConfiguration,
				coordinator.SpecialistPerformance,
				coordinator.SpecialistRecommendation,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			wanted := selectSpecialists(tt.question)
			assert.Len(t, wanted, len(tt.want))
			for _, s := range tt.want {
				assert.True(t, wanted[s], string(s))
			}
		})
	}
}
