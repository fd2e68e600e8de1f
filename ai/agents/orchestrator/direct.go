package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/adspilot/ai/agents/tools"
	"github.com/hrygo/adspilot/ai/core/llm"
	"github.com/hrygo/adspilot/ai/session"
	"github.com/hrygo/adspilot/plugin/adsmath"
	"github.com/hrygo/adspilot/plugin/destinations"
	"github.com/hrygo/adspilot/plugin/metaads"
)

const directPrompt = `You are a Meta advertising assistant. Answer the user's message directly and briefly in the user's language. You handle greetings, thanks, and questions about what you can do.

You can: list and look up campaigns, report performance metrics (spend, clicks, conversions, CTR, CPA, ...), compare periods and destinations, and recommend optimizations. Say so when asked what you can do. Never invent campaign data.`

// directAnswerer handles the no-specialist path: deterministic
// campaign listings and lookups, plus plain LLM replies for smalltalk.
// When it cannot handle the question it reports fallback so the
// orchestrator reroutes through the specialist path.
type directAnswerer struct {
	svc llm.Service
	api tools.MetaAPI
}

// answer returns (text, fallback, error). fallback=true means the
// question needs a specialist after all.
func (d *directAnswerer) answer(ctx context.Context, question string, history []session.Turn) (string, bool, error) {
	lowered := strings.ToLower(question)

	switch {
	case containsAny(lowered, "cuántas campañas", "cuantas campañas"):
		text, err := d.countCampaigns(ctx, lowered)
		if err != nil {
			return "", true, err
		}
		return text, false, nil

	case containsAny(lowered, "lista", "listar", "lístame", "qué campañas", "que campañas", "cuáles campañas", "cuales campañas"):
		text, err := d.listCampaigns(ctx, lowered)
		if err != nil {
			return "", true, err
		}
		return text, false, nil

	case containsAny(lowered, "busca", "buscar", "encuentra"):
		text, found, err := d.searchCampaigns(ctx, question)
		if err != nil {
			return "", true, err
		}
		if !found {
			return "", true, nil
		}
		return text, false, nil

	case containsAny(lowered, "métricas globales", "metricas globales", "métricas generales", "metricas generales", "resumen de métricas", "resumen de metricas"):
		text, err := d.metricsSnapshot(ctx)
		if err != nil {
			return "", true, err
		}
		return text, false, nil

	case isSmalltalk(lowered):
		text, err := d.smalltalk(ctx, question, history)
		if err != nil {
			return "", true, err
		}
		return text, false, nil
	}

	// No dispatch entry matched: the question needs a specialist.
	return "", true, nil
}

// isSmalltalk matches greetings, thanks and capability questions, the
// only inputs answered by a plain chat call without tools.
func isSmalltalk(lowered string) bool {
	return containsAny(lowered,
		"hola", "buenos días", "buenos dias", "buenas tardes", "buenas noches",
		"gracias", "adiós", "adios", "hasta luego",
		"qué puedes hacer", "que puedes hacer", "quién eres", "quien eres",
		"en qué me ayudas", "en que me ayudas", "ayuda",
	)
}

func (d *directAnswerer) smalltalk(ctx context.Context, question string, history []session.Turn) (string, error) {
	messages := []llm.Message{llm.SystemPrompt(directPrompt)}
	if len(history) > 0 {
		messages = append(messages, llm.SystemPrompt(
			"Conversation so far:\n"+session.RenderContext(history)))
	}
	messages = append(messages, llm.UserMessage(question))

	text, _, err := d.svc.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (d *directAnswerer) listCampaigns(ctx context.Context, lowered string) (string, error) {
	status := ""
	if strings.Contains(lowered, "activa") {
		status = "ACTIVE"
	} else if strings.Contains(lowered, "pausada") {
		status = "PAUSED"
	}
	campaigns, err := d.api.ListCampaigns(ctx, status, 0)
	if err != nil {
		return "", err
	}
	if len(campaigns) == 0 {
		return "No hay campañas en la cuenta para ese filtro.", nil
	}
	return formatCampaignList(campaigns), nil
}

func (d *directAnswerer) countCampaigns(ctx context.Context, lowered string) (string, error) {
	status := ""
	if strings.Contains(lowered, "activa") {
		status = "ACTIVE"
	} else if strings.Contains(lowered, "pausada") {
		status = "PAUSED"
	}
	campaigns, err := d.api.ListCampaigns(ctx, status, 0)
	if err != nil {
		return "", err
	}
	if status != "" {
		return fmt.Sprintf("Hay %d campañas con estado %s.", len(campaigns), status), nil
	}
	return fmt.Sprintf("La cuenta tiene %d campañas.", len(campaigns)), nil
}

// metricsSnapshot renders last-7-day account totals without any
// reasoning loop.
func (d *directAnswerer) metricsSnapshot(ctx context.Context) (string, error) {
	rows, err := d.api.AccountInsights(ctx, metaads.Period{Preset: "last_7d"})
	if err != nil {
		return "", err
	}
	var spend float64
	var impressions, clicks, conversions int64
	for _, r := range rows {
		spend += r.SpendEUR()
		impressions += r.ImpressionCount()
		clicks += r.ClickCount()
		conversions += r.Conversions()
	}
	return fmt.Sprintf(
		"Métricas de la cuenta (últimos 7 días):\n- Gasto: %.2f EUR\n- Impresiones: %d\n- Clics: %d (CTR %.2f%%)\n- Conversiones: %d (CPA %.2f EUR)",
		spend, impressions, clicks, adsmath.CTR(clicks, impressions),
		conversions, adsmath.CPA(spend, conversions)), nil
}

func (d *directAnswerer) searchCampaigns(ctx context.Context, question string) (string, bool, error) {
	campaigns, err := d.api.ListCampaigns(ctx, "", 0)
	if err != nil {
		return "", false, err
	}
	dest, ok := destinations.Resolve(question)
	if !ok {
		return "", false, nil
	}
	var matched []metaads.Campaign
	for _, c := range campaigns {
		if destinations.Extract(c.Name) == dest {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return fmt.Sprintf("No encontré campañas de %s.", dest), true, nil
	}
	return fmt.Sprintf("Campañas de %s:\n%s", dest, formatCampaignList(matched)), true, nil
}

func formatCampaignList(campaigns []metaads.Campaign) string {
	var b strings.Builder
	fmt.Fprintf(&b, "La cuenta tiene %d campañas:\n", len(campaigns))
	for _, c := range campaigns {
		fmt.Fprintf(&b, "- %s (%s, destino %s)\n", c.Name, c.Status, destinations.Extract(c.Name))
	}
	return strings.TrimRight(b.String(), "\n")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
