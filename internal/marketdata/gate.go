package marketdata

import (
	"context"
	"fmt"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/types"
)

// Gated wraps a price source with a moving visibility cutoff, usually an
// engine clock. A lookup past the cutoff is a look-ahead attempt and
// returns an error loudly instead of leaking future data; a strategy
// reading history through a Gated source cannot cheat even by accident.
type Gated struct {
	source interfaces.PriceSource
	cutoff func() (string, bool)
}

var _ interfaces.PriceSource = (*Gated)(nil)

func NewGated(source interfaces.PriceSource, cutoff func() (string, bool)) *Gated {
	return &Gated{source: source, cutoff: cutoff}
}

func (g *Gated) Close(ctx context.Context, symbol, date string) (types.Bar, bool, error) {
	cutoff, ok := g.cutoff()
	if !ok {
		return types.Bar{}, false, fmt.Errorf("no visibility cutoff set, refusing lookup for %s on %s", symbol, date)
	}
	if date > cutoff {
		return types.Bar{}, false, fmt.Errorf("look-ahead refused: %s on %s is after cutoff %s", symbol, date, cutoff)
	}
	return g.source.Close(ctx, symbol, date)
}
