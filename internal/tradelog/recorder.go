package tradelog

import (
	"context"

	"llm-trading-sim/internal/engine"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/types"
)

// Recorder adapts the append-only day files to the driver's audit hook.
// Write failures are logged and swallowed; the trade log is an audit
// convenience, never a reason to stop a run.
type Recorder struct{}

var _ engine.Recorder = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) RecordDecision(ctx context.Context, agent, date string, d types.Decision, executed bool) {
	err := AppendDecision(DecisionEntry{
		Agent:    agent,
		Date:     date,
		Symbol:   d.Symbol,
		Action:   d.Action,
		Shares:   d.Shares,
		Reason:   d.Reason,
		Executed: executed,
	})
	if err != nil {
		logger.Warn(ctx, "Trade log decision append failed", "agent", agent, "date", date, "error", err.Error())
	}
}

func (r *Recorder) RecordTrade(ctx context.Context, agent string, t engine.TradeRecord) {
	err := Append(Entry{
		Agent:      agent,
		Date:       t.Date,
		Symbol:     t.Symbol,
		Side:       t.Action,
		Shares:     t.Shares,
		Price:      t.Price,
		Amount:     t.Amount,
		Commission: t.Commission,
		Reason:     t.Reason,
	})
	if err != nil {
		logger.Warn(ctx, "Trade log append failed", "agent", agent, "date", t.Date, "error", err.Error())
	}
}

func (r *Recorder) RecordSnapshot(context.Context, string, engine.DailySnapshot) {
	// day files carry trades and decisions only; valuations live in the
	// journal and the per-agent state files
}
