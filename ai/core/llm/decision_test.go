package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	reply string
	err   error
}

func (f *fakeService) Chat(_ context.Context, _ []Message) (string, *CallStats, error) {
	return f.reply, &CallStats{TotalTokens: 10}, f.err
}

func (f *fakeService) ChatWithTools(_ context.Context, _ []Message, _ []ToolDescriptor) (*ChatResponse, *CallStats, error) {
	return &ChatResponse{Content: f.reply}, nil, f.err
}

func (f *fakeService) Warmup(_ context.Context) {}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONResponse(tt.input))
		})
	}
}

func TestDecide(t *testing.T) {
	type decision struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}

	tests := []struct {
		name     string
		reply    string
		wantErr  bool
		category string
	}{
		{
			name:     "clean json",
			reply:    `{"category":"specialist","confidence":0.9}`,
			category: "specialist",
		},
		{
			name:     "fenced json",
			reply:    "```json\n{\"category\":\"direct\",\"confidence\":0.8}\n```",
			category: "direct",
		},
		{
			name:     "json embedded in prose",
			reply:    "Here is my decision: {\"category\":\"multi_specialist\",\"confidence\":0.7} hope that helps",
			category: "multi_specialist",
		},
		{
			name:    "no json at all",
			reply:   "I cannot decide",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{reply: tt.reply}
			var out decision
			stats, err := Decide(context.Background(), svc, []Message{UserMessage("q")}, &out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, stats)
			assert.Equal(t, tt.category, out.Category)
		})
	}
}
