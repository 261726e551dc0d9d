package llm

import (
	"encoding/json"
	"strings"

	"llm-trading-sim/internal/types"
)

// ParseDecision turns raw model output into a validated Decision. Models
// wrap JSON in markdown fences or prose often enough that this strips
// both. Anything unparseable degrades to HOLD rather than an error: a
// confused model must never halt the simulation.
func ParseDecision(raw string) types.Decision {
	text := stripFences(strings.TrimSpace(raw))

	// tolerate prose around the JSON object
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	var d types.Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return types.Decision{Action: types.ActionHold, Reason: "invalid_json"}
	}

	d.Action = strings.ToUpper(strings.TrimSpace(d.Action))
	switch d.Action {
	case types.ActionBuy, types.ActionSell:
		if d.Symbol == "" || d.Shares <= 0 {
			return types.Decision{Action: types.ActionHold, Reason: "incomplete_decision"}
		}
	case types.ActionHold:
		d.Symbol = ""
		d.Shares = 0
	default:
		return types.Decision{Action: types.ActionHold, Reason: "unknown_action"}
	}

	d.Symbol = strings.TrimSpace(d.Symbol)
	if d.Reason == "" {
		d.Reason = "no reason given"
	}
	return d
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
