package engine

import (
	"context"
	"fmt"

	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/store"
)

// Engine is the time-aware trading engine for one agent. It couples a
// ledger to the simulation clock: every trade must carry the clock's
// current date, so a misbehaving decision-maker can neither backdate nor
// forward-date an order. State is persisted after every successful
// mutation when a state store is attached.
type Engine struct {
	agent     string
	ledger    *Ledger
	clock     *Clock
	states    store.StateStore
	startDate string
}

// New builds an engine with a fresh ledger. states may be nil to disable
// persistence (unit tests run without a filesystem).
func New(agent string, initialCash float64, fees FeeModel, lotSize int, states store.StateStore) *Engine {
	return &Engine{
		agent:  agent,
		ledger: NewLedger(initialCash, fees, lotSize),
		clock:  NewClock(),
		states: states,
	}
}

func (e *Engine) Agent() string { return e.agent }

func (e *Engine) Ledger() *Ledger { return e.ledger }

// CutoffDate is the latest date whose market data this agent may observe.
func (e *Engine) CutoffDate() (string, bool) {
	return e.clock.Current()
}

// Initialize starts a fresh simulation run: the clock moves to startDate
// and the ledger is reset to its initial cash with no positions, trades
// or snapshots.
func (e *Engine) Initialize(ctx context.Context, startDate string) error {
	e.clock.Initialize(startDate)
	e.startDate = startDate
	e.ledger.Reset()
	if e.states != nil {
		if err := e.states.Reset(e.agent); err != nil {
			return fmt.Errorf("reset state for %s: %w", e.agent, err)
		}
		if err := e.persist(); err != nil {
			return err
		}
	}
	logger.Info(ctx, "Simulation initialized", "agent", e.agent, "start_date", startDate, "initial_cash", e.ledger.InitialCash())
	return nil
}

// AdvanceTo moves the clock to a new trading date. If the date being left
// was never snapshotted, a snapshot is recorded for it first so no day is
// skipped. Backward movement is an error.
func (e *Engine) AdvanceTo(ctx context.Context, date string) error {
	prev, ok := e.clock.Current()
	if !ok {
		return fmt.Errorf("agent %s: clock not initialized", e.agent)
	}
	if date == prev {
		return nil
	}
	if !e.snapshottedFor(prev) {
		e.ledger.RecordDailyValue(prev)
	}
	if err := e.clock.AdvanceTo(date); err != nil {
		logger.Warn(ctx, "Clock advance rejected", "agent", e.agent, "from", prev, "to", date)
		return err
	}
	return e.persist()
}

func (e *Engine) snapshottedFor(date string) bool {
	snaps := e.ledger.snapshots
	return len(snaps) > 0 && snaps[len(snaps)-1].Date == date
}

// Completed reports whether the given date has already been fully
// processed, used to skip finished days when resuming a run.
func (e *Engine) Completed(date string) bool {
	current, ok := e.clock.Current()
	if !ok {
		return false
	}
	if date < current {
		return true
	}
	return date == current && e.snapshottedFor(date)
}

// Buy executes a purchase dated at the clock's current date. A trade
// carrying any other date is rejected at the gate before the ledger sees
// it; that is the mechanism that keeps look-ahead leaks out of results.
func (e *Engine) Buy(ctx context.Context, date, symbol, name string, price float64, shares int, reason string) bool {
	if !e.clock.Gates(date) {
		current, _ := e.clock.Current()
		logger.Warn(ctx, "Trade rejected by time gate",
			"agent", e.agent, "action", "buy", "symbol", symbol,
			"trade_date", date, "current_date", current)
		return false
	}
	if !e.ledger.Buy(date, symbol, name, price, shares, reason) {
		logger.Debug(ctx, "Buy rejected by ledger", "agent", e.agent, "symbol", symbol, "price", price, "shares", shares, "cash", e.ledger.Cash())
		return false
	}
	logger.Trade(ctx, e.agent, date, "buy", symbol, shares, price, "cash", e.ledger.Cash())
	if err := e.persist(); err != nil {
		logger.ErrorWithErr(ctx, "Failed to persist state after buy", err, "agent", e.agent)
	}
	return true
}

// Sell is the sell-side counterpart of Buy, with the same gating.
func (e *Engine) Sell(ctx context.Context, date, symbol, name string, price float64, shares int, reason string) bool {
	if !e.clock.Gates(date) {
		current, _ := e.clock.Current()
		logger.Warn(ctx, "Trade rejected by time gate",
			"agent", e.agent, "action", "sell", "symbol", symbol,
			"trade_date", date, "current_date", current)
		return false
	}
	if !e.ledger.Sell(date, symbol, name, price, shares, reason) {
		logger.Debug(ctx, "Sell rejected by ledger", "agent", e.agent, "symbol", symbol, "shares", shares)
		return false
	}
	logger.Trade(ctx, e.agent, date, "sell", symbol, shares, price, "cash", e.ledger.Cash())
	if err := e.persist(); err != nil {
		logger.ErrorWithErr(ctx, "Failed to persist state after sell", err, "agent", e.agent)
	}
	return true
}

// MarkToMarket updates position marks with the supplied close prices.
func (e *Engine) MarkToMarket(closes map[string]float64) {
	e.ledger.UpdatePositionsPrice(closes)
}

// RecordDailyValue snapshots the portfolio for the given date, after that
// date's trades and marks are final.
func (e *Engine) RecordDailyValue(ctx context.Context, date string) DailySnapshot {
	snap := e.ledger.RecordDailyValue(date)
	logger.Debug(ctx, "Daily snapshot recorded",
		"agent", e.agent, "date", date,
		"cash", snap.Cash, "total_assets", snap.TotalAssets, "return_pct", snap.ReturnPct)
	if err := e.persist(); err != nil {
		logger.ErrorWithErr(ctx, "Failed to persist state after snapshot", err, "agent", e.agent)
	}
	return snap
}

// Summary is the final report line for one agent.
type Summary struct {
	Agent         string  `json:"agent_name"`
	InitialCash   float64 `json:"initial_cash"`
	Cash          float64 `json:"cash"`
	MarketValue   float64 `json:"market_value"`
	TotalAssets   float64 `json:"total_assets"`
	ReturnPct     float64 `json:"return_pct"`
	PositionCount int     `json:"positions_count"`
	TradeCount    int     `json:"trades_count"`
	StartDate     string  `json:"start_date"`
	CurrentDate   string  `json:"current_date"`
}

func (e *Engine) Summary() Summary {
	current, _ := e.clock.Current()
	return Summary{
		Agent:         e.agent,
		InitialCash:   e.ledger.InitialCash(),
		Cash:          e.ledger.Cash(),
		MarketValue:   e.ledger.TotalMarketValue(),
		TotalAssets:   e.ledger.TotalAssets(),
		ReturnPct:     e.ledger.ReturnPct(),
		PositionCount: e.ledger.PositionCount(),
		TradeCount:    len(e.ledger.trades),
		StartDate:     e.startDate,
		CurrentDate:   current,
	}
}

// ExportState serializes the full engine state for persistence.
func (e *Engine) ExportState() *store.AgentState {
	current, _ := e.clock.Current()
	st := &store.AgentState{
		AgentName:             e.agent,
		InitialCapital:        e.ledger.InitialCash(),
		CurrentCapital:        e.ledger.Cash(),
		Positions:             make(map[string]store.Position, e.ledger.PositionCount()),
		SimulationStartDate:   e.startDate,
		SimulationCurrentDate: current,
	}
	for _, pos := range e.ledger.Positions() {
		st.Positions[pos.Symbol] = store.Position{
			Name:      pos.Name,
			Shares:    pos.Shares,
			AvgCost:   pos.AvgCost,
			LastPrice: pos.LastPrice,
		}
	}
	for _, t := range e.ledger.trades {
		st.TradeHistory = append(st.TradeHistory, store.Trade(t))
	}
	for _, s := range e.ledger.snapshots {
		st.DailySnapshots = append(st.DailySnapshots, store.Snapshot(s))
	}
	return st
}

// RestoreState reconstructs an equivalent engine state from a previously
// exported one, enabling resume across process restarts.
func (e *Engine) RestoreState(st *store.AgentState) error {
	if st.AgentName != e.agent {
		return fmt.Errorf("state belongs to %s, engine is %s", st.AgentName, e.agent)
	}
	e.ledger.initialCash = st.InitialCapital
	e.ledger.cash = st.CurrentCapital
	e.ledger.positions = make(map[string]*Position, len(st.Positions))
	for symbol, p := range st.Positions {
		e.ledger.positions[symbol] = &Position{
			Symbol:    symbol,
			Name:      p.Name,
			Shares:    p.Shares,
			AvgCost:   p.AvgCost,
			LastPrice: p.LastPrice,
		}
	}
	e.ledger.trades = nil
	for _, t := range st.TradeHistory {
		e.ledger.trades = append(e.ledger.trades, TradeRecord(t))
	}
	e.ledger.snapshots = nil
	for _, s := range st.DailySnapshots {
		e.ledger.snapshots = append(e.ledger.snapshots, DailySnapshot(s))
	}
	e.startDate = st.SimulationStartDate
	if st.SimulationCurrentDate != "" {
		e.clock.Initialize(st.SimulationCurrentDate)
	}
	return nil
}

func (e *Engine) persist() error {
	if e.states == nil {
		return nil
	}
	return e.states.Save(e.ExportState())
}
