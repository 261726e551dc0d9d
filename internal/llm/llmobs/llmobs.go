package llmobs

import (
	"context"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/trace"
	"llm-trading-sim/internal/types"
)

// observableDecider wraps a Decider with observability (logging & tracing)
type observableDecider struct {
	name    string
	decider interfaces.Decider
}

// Compile-time interface check
var _ interfaces.Decider = (*observableDecider)(nil)

// Wrap wraps a decider with observability middleware
func Wrap(name string, decider interfaces.Decider) interfaces.Decider {
	return &observableDecider{
		name:    name,
		decider: decider,
	}
}

func (od *observableDecider) Decide(
	ctx context.Context,
	date string,
	view types.PortfolioView,
	universe []types.Stock,
) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Decide")
	defer span.End()

	logger.Debug(ctx, "Requesting trading decision",
		"agent", od.name,
		"date", date,
		"cash", view.Cash,
		"positions", len(view.Positions),
		"universe", len(universe),
	)

	decision, err := od.decider.Decide(ctx, date, view, universe)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to get trading decision", err,
			"agent", od.name,
			"date", date,
		)
		return types.Decision{}, err
	}

	logger.Info(ctx, "Trading decision received",
		"agent", od.name,
		"date", date,
		"action", decision.Action,
		"symbol", decision.Symbol,
		"shares", decision.Shares,
		"reason", decision.Reason,
	)

	return decision, nil
}
