package random

import (
	"context"
	"fmt"
	"math/rand"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/types"
)

// Decider trades at random. It is the control group of a competition: an
// LLM that cannot beat it is not adding signal. Seeded, so a run with the
// same seed and the same inputs replays the exact same decisions.
type Decider struct {
	rng     *rand.Rand
	lotSize int
}

var _ interfaces.Decider = (*Decider)(nil)

func New(seed int64, lotSize int) *Decider {
	if lotSize <= 0 {
		lotSize = 100
	}
	return &Decider{rng: rand.New(rand.NewSource(seed)), lotSize: lotSize}
}

func (d *Decider) Decide(_ context.Context, _ string, view types.PortfolioView, universe []types.Stock) (types.Decision, error) {
	roll := d.rng.Float64()
	switch {
	case roll < 0.15 && len(universe) > 0:
		return d.randomBuy(view, universe), nil
	case roll < 0.30 && len(view.Positions) > 0:
		return d.randomSell(view), nil
	default:
		return types.Decision{Action: types.ActionHold, Reason: "random hold"}, nil
	}
}

func (d *Decider) randomBuy(view types.PortfolioView, universe []types.Stock) types.Decision {
	pick := universe[d.rng.Intn(len(universe))]
	if pick.Close <= 0 {
		return types.Decision{Action: types.ActionHold, Reason: "random hold"}
	}

	// spend 10-30% of cash, rounded down to whole lots
	budget := view.Cash * (0.10 + 0.20*d.rng.Float64())
	lots := int(budget / (pick.Close * float64(d.lotSize)))
	if lots == 0 {
		return types.Decision{Action: types.ActionHold, Reason: "random hold, budget below one lot"}
	}
	return types.Decision{
		Action: types.ActionBuy,
		Symbol: pick.Symbol,
		Shares: lots * d.lotSize,
		Reason: fmt.Sprintf("random buy of %s", pick.Symbol),
	}
}

func (d *Decider) randomSell(view types.PortfolioView) types.Decision {
	pos := view.Positions[d.rng.Intn(len(view.Positions))]
	maxLots := pos.Shares / d.lotSize
	if maxLots == 0 {
		return types.Decision{Action: types.ActionHold, Reason: "random hold, position below one lot"}
	}
	lots := 1 + d.rng.Intn(maxLots)
	return types.Decision{
		Action: types.ActionSell,
		Symbol: pos.Symbol,
		Shares: lots * d.lotSize,
		Reason: fmt.Sprintf("random sell of %s", pos.Symbol),
	}
}
