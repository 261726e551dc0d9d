package interfaces

import (
	"context"

	"llm-trading-sim/internal/types"
)

// Decider returns exactly one instruction for the given simulated date.
// Implementations must never mutate the views they receive; any shares
// value they return is validated by the ledger, not trusted.
type Decider interface {
	Decide(ctx context.Context, date string, view types.PortfolioView, universe []types.Stock) (types.Decision, error)
}
