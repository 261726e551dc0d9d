package noop

import (
	"context"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/types"
)

// Decider always holds. It doubles as the fallback when no LLM is
// configured and as the flat benchmark agent in competitions.
type Decider struct{}

var _ interfaces.Decider = (*Decider)(nil)

func New() *Decider {
	return &Decider{}
}

func (d *Decider) Decide(ctx context.Context, date string, _ types.PortfolioView, _ []types.Stock) (types.Decision, error) {
	logger.Debug(ctx, "Noop decider called - always returns HOLD", "date", date)
	return types.Decision{
		Action: types.ActionHold,
		Reason: "noop_decider_fallback",
	}, nil
}
