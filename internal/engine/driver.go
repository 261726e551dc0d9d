package engine

import (
	"context"
	"fmt"
	"time"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/store"
	"llm-trading-sim/internal/types"
)

// Agent pairs a decider with its engine for the driver loop.
type Agent struct {
	Name    string
	Decider interfaces.Decider
	Engine  *Engine
}

// Recorder receives executed trades, decisions and daily snapshots for
// audit sinks (trade log, run journal). Recorder failures never affect
// simulation results.
type Recorder interface {
	RecordDecision(ctx context.Context, agent, date string, decision types.Decision, executed bool)
	RecordTrade(ctx context.Context, agent string, trade TradeRecord)
	RecordSnapshot(ctx context.Context, agent string, snapshot DailySnapshot)
}

// Driver runs the day-by-day simulation loop over a set of agents. Each
// trading date it advances every agent's clock, builds the visible
// universe, collects exactly one decision per agent, executes it, marks
// positions to that date's closes, and records a daily snapshot. Given
// the same price data and decider outputs, two runs produce identical
// trades and snapshots.
type Driver struct {
	agents    []*Agent
	source    interfaces.PriceSource
	calendar  interfaces.Calendar
	universe  []store.UniverseEntry
	timeout   time.Duration
	recorders []Recorder
}

func NewDriver(agents []*Agent, source interfaces.PriceSource, calendar interfaces.Calendar, universe []store.UniverseEntry, timeout time.Duration) *Driver {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Driver{
		agents:   agents,
		source:   source,
		calendar: calendar,
		universe: universe,
		timeout:  timeout,
	}
}

// AddRecorder registers an audit sink. Must be called before Run.
func (d *Driver) AddRecorder(r Recorder) {
	d.recorders = append(d.recorders, r)
}

// Run executes the simulation over the trading dates in [start, end].
// Agents whose clock already sits past start (resumed runs) skip the
// dates they have completed.
func (d *Driver) Run(ctx context.Context, start, end string) error {
	dates, err := d.calendar.TradingDates(ctx, start, end)
	if err != nil {
		return fmt.Errorf("resolve trading dates: %w", err)
	}
	if len(dates) == 0 {
		return fmt.Errorf("no trading dates between %s and %s", start, end)
	}
	logger.Info(ctx, "Simulation run starting",
		"start", dates[0], "end", dates[len(dates)-1],
		"trading_days", len(dates), "agents", len(d.agents))

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.runDate(ctx, date); err != nil {
			return err
		}
	}

	logger.Info(ctx, "Simulation run finished", "trading_days", len(dates))
	return nil
}

func (d *Driver) runDate(ctx context.Context, date string) error {
	universe, closes := d.buildUniverse(ctx, date)

	for _, agent := range d.agents {
		if agent.Engine.Completed(date) {
			logger.Debug(ctx, "Date already completed, skipping", "agent", agent.Name, "date", date)
			continue
		}
		if err := agent.Engine.AdvanceTo(ctx, date); err != nil {
			return fmt.Errorf("advance %s to %s: %w", agent.Name, date, err)
		}

		decision := d.decide(ctx, agent, date, universe)
		executed := d.execute(ctx, agent, date, decision, closes)
		for _, r := range d.recorders {
			r.RecordDecision(ctx, agent.Name, date, decision, executed)
		}
		if executed {
			trades := agent.Engine.Ledger().Trades()
			for _, r := range d.recorders {
				r.RecordTrade(ctx, agent.Name, trades[len(trades)-1])
			}
		}

		agent.Engine.MarkToMarket(closes)
		snap := agent.Engine.RecordDailyValue(ctx, date)
		for _, r := range d.recorders {
			r.RecordSnapshot(ctx, agent.Name, snap)
		}
	}
	return nil
}

// buildUniverse assembles the stocks visible on the given date along with
// a symbol-to-close map for execution and marking. Symbols without a bar
// on that date are left out of the universe; positions in them keep their
// previous mark. A fetch error is treated the same way as a missing bar:
// the symbol is withheld for the date and the run carries on, so one
// upstream timeout cannot kill a multi-week simulation.
func (d *Driver) buildUniverse(ctx context.Context, date string) ([]types.Stock, map[string]float64) {
	universe := make([]types.Stock, 0, len(d.universe))
	closes := make(map[string]float64, len(d.universe))
	for _, entry := range d.universe {
		bar, ok, err := d.source.Close(ctx, entry.Symbol, date)
		if err != nil {
			logger.Warn(ctx, "Price fetch failed, withholding symbol for the day",
				"symbol", entry.Symbol, "date", date, "error", err.Error())
			continue
		}
		if !ok {
			continue
		}
		change := 0.0
		if bar.Open > 0 {
			change = (bar.Close - bar.Open) / bar.Open * 100
		}
		universe = append(universe, types.Stock{
			Symbol:   entry.Symbol,
			Name:     entry.Name,
			Industry: entry.Industry,
			Close:    bar.Close,
			Change:   change,
		})
		closes[entry.Symbol] = bar.Close
	}
	return universe, closes
}

// decide collects one decision from the agent under a timeout. Any
// failure mode, an error, a panic or a timeout, degrades to HOLD; a
// broken decider must never corrupt the ledger or halt the run.
func (d *Driver) decide(ctx context.Context, agent *Agent, date string, universe []types.Stock) types.Decision {
	dctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	view := agent.Engine.Ledger().View(date)
	decision, err := safeDecide(dctx, agent.Decider, date, view, universe)
	if err != nil {
		logger.ErrorWithErr(ctx, "Decider failed, holding", err, "agent", agent.Name, "date", date)
		return types.Decision{Action: types.ActionHold, Reason: "decision unavailable"}
	}
	logger.Decision(ctx, agent.Name, date, decision.Action, "symbol", decision.Symbol, "shares", decision.Shares, "reason", decision.Reason)
	return decision
}

func safeDecide(ctx context.Context, decider interfaces.Decider, date string, view types.PortfolioView, universe []types.Stock) (decision types.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decider panic: %v", r)
		}
	}()
	return decider.Decide(ctx, date, view, universe)
}

// execute applies one decision at the date's close price. Returns true
// when a trade actually happened.
func (d *Driver) execute(ctx context.Context, agent *Agent, date string, decision types.Decision, closes map[string]float64) bool {
	switch decision.Action {
	case types.ActionBuy, types.ActionSell:
	default:
		return false
	}

	price, ok := closes[decision.Symbol]
	if !ok {
		logger.Warn(ctx, "Decision targets symbol with no price today",
			"agent", agent.Name, "date", date, "symbol", decision.Symbol)
		return false
	}

	name := ""
	for _, entry := range d.universe {
		if entry.Symbol == decision.Symbol {
			name = entry.Name
			break
		}
	}

	if decision.Action == types.ActionBuy {
		return agent.Engine.Buy(ctx, date, decision.Symbol, name, price, decision.Shares, decision.Reason)
	}
	return agent.Engine.Sell(ctx, date, decision.Symbol, name, price, decision.Shares, decision.Reason)
}
