package rules

import (
	"context"
	"fmt"
	"time"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/types"
)

// Decider is a simple momentum follower: buy the strongest riser over the
// lookback window, sell holdings that have rolled over. It reads history
// through a price source, so when handed a gated source it is physically
// unable to peek past the simulated date.
type Decider struct {
	source   interfaces.PriceSource
	calendar interfaces.Calendar
	window   int
	lotSize  int
}

var _ interfaces.Decider = (*Decider)(nil)

func New(source interfaces.PriceSource, calendar interfaces.Calendar, window, lotSize int) *Decider {
	if window <= 0 {
		window = 5
	}
	if lotSize <= 0 {
		lotSize = 100
	}
	return &Decider{source: source, calendar: calendar, window: window, lotSize: lotSize}
}

const (
	buyThreshold  = 0.03  // enter above +3% over the window
	sellThreshold = -0.02 // exit below -2%
	buyFraction   = 0.25  // quarter of cash per entry
)

func (d *Decider) Decide(ctx context.Context, date string, view types.PortfolioView, universe []types.Stock) (types.Decision, error) {
	momentum, err := d.momentum(ctx, date, universe)
	if err != nil {
		return types.Decision{}, err
	}

	// exits first: free the cash before chasing new entries
	for _, pos := range view.Positions {
		m, ok := momentum[pos.Symbol]
		if !ok || m > sellThreshold {
			continue
		}
		shares := pos.Shares - pos.Shares%d.lotSize
		if shares == 0 {
			continue
		}
		return types.Decision{
			Action: types.ActionSell,
			Symbol: pos.Symbol,
			Shares: shares,
			Reason: fmt.Sprintf("momentum %.1f%% over %d days, exiting", m*100, d.window),
		}, nil
	}

	best, bestM := "", buyThreshold
	var bestClose float64
	for _, stock := range universe {
		m, ok := momentum[stock.Symbol]
		if !ok || m <= bestM {
			continue
		}
		if _, held := findPosition(view.Positions, stock.Symbol); held {
			continue
		}
		best, bestM, bestClose = stock.Symbol, m, stock.Close
	}
	if best == "" {
		return types.Decision{Action: types.ActionHold, Reason: "no momentum signal"}, nil
	}

	lots := int(view.Cash * buyFraction / (bestClose * float64(d.lotSize)))
	if lots == 0 {
		return types.Decision{Action: types.ActionHold, Reason: "signal present but budget below one lot"}, nil
	}
	return types.Decision{
		Action: types.ActionBuy,
		Symbol: best,
		Shares: lots * d.lotSize,
		Reason: fmt.Sprintf("momentum %.1f%% over %d days", bestM*100, d.window),
	}, nil
}

// momentum computes close-over-close change across the lookback window
// ending at date. Symbols missing either endpoint bar are omitted.
func (d *Decider) momentum(ctx context.Context, date string, universe []types.Stock) (map[string]float64, error) {
	dates, err := d.lookbackDates(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(dates) < 2 {
		return map[string]float64{}, nil
	}
	first, last := dates[0], dates[len(dates)-1]

	out := make(map[string]float64, len(universe))
	for _, stock := range universe {
		then, ok, err := d.source.Close(ctx, stock.Symbol, first)
		if err != nil {
			return nil, err
		}
		if !ok || then.Close <= 0 {
			continue
		}
		now, ok, err := d.source.Close(ctx, stock.Symbol, last)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[stock.Symbol] = now.Close/then.Close - 1
	}
	return out, nil
}

func (d *Decider) lookbackDates(ctx context.Context, date string) ([]string, error) {
	// generous calendar span to cover window trading days plus weekends
	start := addDays(date, -(d.window*2 + 7))
	dates, err := d.calendar.TradingDates(ctx, start, date)
	if err != nil {
		return nil, err
	}
	if len(dates) > d.window+1 {
		dates = dates[len(dates)-d.window-1:]
	}
	return dates, nil
}

func addDays(date string, n int) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format("2006-01-02")
}

func findPosition(positions []types.PositionView, symbol string) (types.PositionView, bool) {
	for _, p := range positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return types.PositionView{}, false
}
