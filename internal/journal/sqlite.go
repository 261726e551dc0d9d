package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"llm-trading-sim/internal/engine"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/types"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// BeginRun registers a new run and returns its ULID.
func (j *SQLite) BeginRun(startDate, endDate string, agents int) (string, error) {
	runID := newID()
	_, err := j.db.Exec(`
		INSERT INTO runs (run_id, start_date, end_date, agents, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		runID, startDate, endDate, agents, time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}
	return runID, nil
}

func (j *SQLite) insertDecision(row DecisionRow) error {
	_, err := j.db.Exec(`
		INSERT INTO decisions (run_id, agent, date, action, symbol, shares, reason, executed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Agent, row.Date, row.Action, row.Symbol, row.Shares, row.Reason, row.Executed,
	)
	return err
}

func (j *SQLite) insertTrade(row TradeRow) error {
	_, err := j.db.Exec(`
		INSERT INTO trades (trade_id, run_id, agent, date, action, symbol, price, shares, amount, commission, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.TradeID, row.RunID, row.Agent, row.Date, row.Action, row.Symbol,
		row.Price, row.Shares, row.Amount, row.Commission, row.Reason,
	)
	return err
}

func (j *SQLite) insertSnapshot(row SnapshotRow) error {
	_, err := j.db.Exec(`
		INSERT INTO snapshots (run_id, agent, date, cash, market_value, total_assets, return_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Agent, row.Date, row.Cash, row.MarketValue, row.TotalAssets, row.ReturnPct,
	)
	return err
}

// ListRuns returns all recorded runs, newest first.
func (j *SQLite) ListRuns() ([]Run, error) {
	rows, err := j.db.Query(`
		SELECT run_id, start_date, end_date, agents, created_at
		FROM runs ORDER BY run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.StartDate, &r.EndDate, &r.Agents, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTrades returns one agent's trades within a run, in date order.
func (j *SQLite) ListTrades(runID, agent string) ([]TradeRow, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, agent, date, action, symbol, price, shares, amount, commission, reason
		FROM trades
		WHERE run_id = ? AND agent = ?
		ORDER BY trade_id ASC`, runID, agent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRow
	for rows.Next() {
		var t TradeRow
		if err := rows.Scan(
			&t.TradeID, &t.RunID, &t.Agent, &t.Date, &t.Action, &t.Symbol,
			&t.Price, &t.Shares, &t.Amount, &t.Commission, &t.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListSnapshots returns one agent's daily valuations within a run.
func (j *SQLite) ListSnapshots(runID, agent string) ([]SnapshotRow, error) {
	rows, err := j.db.Query(`
		SELECT run_id, agent, date, cash, market_value, total_assets, return_pct
		FROM snapshots
		WHERE run_id = ? AND agent = ?
		ORDER BY date ASC`, runID, agent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var s SnapshotRow
		if err := rows.Scan(&s.RunID, &s.Agent, &s.Date, &s.Cash, &s.MarketValue, &s.TotalAssets, &s.ReturnPct); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LatestSnapshot returns the last valuation of an agent in a run.
func (j *SQLite) LatestSnapshot(runID, agent string) (SnapshotRow, error) {
	var s SnapshotRow
	row := j.db.QueryRow(`
		SELECT run_id, agent, date, cash, market_value, total_assets, return_pct
		FROM snapshots
		WHERE run_id = ? AND agent = ?
		ORDER BY date DESC LIMIT 1`, runID, agent)
	err := row.Scan(&s.RunID, &s.Agent, &s.Date, &s.Cash, &s.MarketValue, &s.TotalAssets, &s.ReturnPct)
	if err == sql.ErrNoRows {
		return SnapshotRow{}, fmt.Errorf("no snapshots for %s in run %s", agent, runID)
	}
	return s, err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// Recorder binds the journal to one run so it can be attached to a
// driver. Insert failures are logged and swallowed: the audit trail is
// secondary to the run itself.
func (j *SQLite) Recorder(runID string) engine.Recorder {
	return &runRecorder{j: j, runID: runID}
}

type runRecorder struct {
	j     *SQLite
	runID string
}

var _ engine.Recorder = (*runRecorder)(nil)

func (r *runRecorder) RecordDecision(ctx context.Context, agent, date string, d types.Decision, executed bool) {
	err := r.j.insertDecision(DecisionRow{
		RunID: r.runID, Agent: agent, Date: date,
		Action: d.Action, Symbol: d.Symbol, Shares: d.Shares, Reason: d.Reason,
		Executed: executed,
	})
	if err != nil {
		logger.Warn(ctx, "Journal decision insert failed", "agent", agent, "date", date, "error", err.Error())
	}
}

func (r *runRecorder) RecordTrade(ctx context.Context, agent string, t engine.TradeRecord) {
	err := r.j.insertTrade(TradeRow{
		TradeID: newID(), RunID: r.runID, Agent: agent,
		Date: t.Date, Action: t.Action, Symbol: t.Symbol,
		Price: t.Price, Shares: t.Shares, Amount: t.Amount,
		Commission: t.Commission, Reason: t.Reason,
	})
	if err != nil {
		logger.Warn(ctx, "Journal trade insert failed", "agent", agent, "date", t.Date, "error", err.Error())
	}
}

func (r *runRecorder) RecordSnapshot(ctx context.Context, agent string, s engine.DailySnapshot) {
	err := r.j.insertSnapshot(SnapshotRow{
		RunID: r.runID, Agent: agent, Date: s.Date,
		Cash: s.Cash, MarketValue: s.MarketValue,
		TotalAssets: s.TotalAssets, ReturnPct: s.ReturnPct,
	})
	if err != nil {
		logger.Warn(ctx, "Journal snapshot insert failed", "agent", agent, "date", s.Date, "error", err.Error())
	}
}
