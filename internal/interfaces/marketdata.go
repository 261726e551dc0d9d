package interfaces

import (
	"context"

	"llm-trading-sim/internal/types"
)

// PriceSource serves daily bars. Close returns ok=false when the symbol has
// no bar for that date; that is an expected outcome, not an error.
type PriceSource interface {
	Close(ctx context.Context, symbol, date string) (types.Bar, bool, error)
}

// Calendar lists the trading dates in [start, end], ordered ascending.
type Calendar interface {
	TradingDates(ctx context.Context, start, end string) ([]string, error)
}
