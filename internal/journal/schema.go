package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	agents INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS decisions (
	run_id TEXT NOT NULL,
	agent TEXT NOT NULL,
	date TEXT NOT NULL,
	action TEXT NOT NULL,
	symbol TEXT NOT NULL,
	shares INTEGER NOT NULL,
	reason TEXT NOT NULL,
	executed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	agent TEXT NOT NULL,
	date TEXT NOT NULL,
	action TEXT NOT NULL,
	symbol TEXT NOT NULL,
	price REAL NOT NULL,
	shares INTEGER NOT NULL,
	amount REAL NOT NULL,
	commission REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT NOT NULL,
	agent TEXT NOT NULL,
	date TEXT NOT NULL,
	cash REAL NOT NULL,
	market_value REAL NOT NULL,
	total_assets REAL NOT NULL,
	return_pct REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_run ON decisions(run_id, agent, date);
CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, agent, date);
CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id, agent, date);
`
