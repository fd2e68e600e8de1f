package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/adspilot/ai/core/llm"
	"github.com/hrygo/adspilot/ai/session"
)

type stubLLM struct {
	reply    string
	lastUser string
}

func (s *stubLLM) Chat(_ context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	for _, m := range messages {
		if m.Role == "user" {
			s.lastUser = m.Content
		}
	}
	return s.reply, &llm.CallStats{TotalTokens: 10}, nil
}

func (s *stubLLM) ChatWithTools(_ context.Context, _ []llm.Message, _ []llm.ToolDescriptor) (*llm.ChatResponse, *llm.CallStats, error) {
	return &llm.ChatResponse{Content: s.reply}, nil, nil
}

func (s *stubLLM) Warmup(_ context.Context) {}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		question string
		want     Category
	}{
		{
			name:     "listing request goes direct",
			reply:    `{"category":"direct","confidence":0.95,"reasoning":"bare listing"}`,
			question: "lista todas las campañas",
			want:     CategoryDirect,
		},
		{
			name:     "ad metric question goes to a specialist",
			reply:    `{"category":"specialist","confidence":0.9,"reasoning":"ad-level metric"}`,
			question: "¿qué anuncio tiene el mejor CTR?",
			want:     CategorySpecialist,
		},
		{
			name:     "full review goes multi",
			reply:    `{"category":"multi_specialist","confidence":0.85,"reasoning":"holistic"}`,
			question: "hazme un análisis completo de la cuenta",
			want:     CategoryMultiSpecialist,
		},
		{
			name:     "fenced json is tolerated",
			reply:    "```json\n{\"category\":\"direct\",\"confidence\":0.8,\"reasoning\":\"greeting\"}\n```",
			question: "hola",
			want:     CategoryDirect,
		},
		{
			name:     "invalid category falls back to specialist",
			reply:    `{"category":"router","confidence":0.9,"reasoning":"?"}`,
			question: "¿cuánto gasté ayer?",
			want:     CategorySpecialist,
		},
		{
			name:     "unparseable reply falls back to specialist",
			reply:    "I cannot answer in JSON",
			question: "¿cuánto gasté ayer?",
			want:     CategorySpecialist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&stubLLM{reply: tt.reply})
			decision, _, err := c.Classify(context.Background(), tt.question, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision.Category)
		})
	}
}

func TestClassify_EmptyQuestion(t *testing.T) {
	c := New(&stubLLM{reply: `{}`})
	_, _, err := c.Classify(context.Background(), "   ", nil)
	assert.Error(t, err)
}

func TestClassify_Continuation(t *testing.T) {
	stub := &stubLLM{reply: `{"category":"specialist","confidence":0.9,"reasoning":"answers the pending question","intent":"continuation","resolved_question":"métricas de la campaña de Baqueira"}`}
	c := New(stub)

	history := []session.Turn{
		{Question: "¿cuánto gastó la campaña?", Answer: "¿De qué campaña quieres los datos?"},
	}
	decision, _, err := c.Classify(context.Background(), "Baqueira", history)
	require.NoError(t, err)

	assert.Equal(t, CategorySpecialist, decision.Category)
	assert.Equal(t, IntentContinuation, decision.Intent)
	assert.Equal(t, "métricas de la campaña de Baqueira", decision.Resolved)
	assert.Contains(t, stub.lastUser, "Conversation so far")
	assert.Contains(t, stub.lastUser, "¿De qué campaña quieres los datos?")
	assert.Contains(t, stub.lastUser, "New question: Baqueira")
}
