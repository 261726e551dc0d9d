package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"llm-trading-sim/internal/engine"
)

// AgentReport is the full end-of-run export for one agent: the summary
// line plus everything needed to audit how it got there.
type AgentReport struct {
	Summary   engine.Summary         `json:"summary"`
	Positions []engine.Position      `json:"positions"`
	Trades    []engine.TradeRecord   `json:"trades"`
	Snapshots []engine.DailySnapshot `json:"daily_snapshots"`
}

func BuildAgentReport(e *engine.Engine) AgentReport {
	return AgentReport{
		Summary:   e.Summary(),
		Positions: e.Ledger().Positions(),
		Trades:    e.Ledger().Trades(),
		Snapshots: e.Ledger().Snapshots(),
	}
}

// WriteAgentReport writes <agent>_report.json into dir.
func WriteAgentReport(dir string, r AgentReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report for %s: %w", r.Summary.Agent, err)
	}
	path := filepath.Join(dir, r.Summary.Agent+"_report.json")
	return os.WriteFile(path, b, 0o644)
}
