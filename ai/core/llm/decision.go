package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CleanJSONResponse strips markdown code fences that some models wrap
// around a JSON reply.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// Decide performs one chat call and unmarshals the reply into out.
// Models occasionally wrap the JSON object in code fences or prose;
// on a parse failure of the full reply, the outermost {...} span is
// retried before giving up.
func Decide(ctx context.Context, svc Service, messages []Message, out any) (*CallStats, error) {
	response, stats, err := svc.Chat(ctx, messages)
	if err != nil {
		return stats, err
	}

	cleaned := CleanJSONResponse(response)
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return stats, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err == nil {
			return stats, nil
		}
	}

	return stats, fmt.Errorf("parse decision JSON: unparseable response (%d bytes)", len(response))
}
