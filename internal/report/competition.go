package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"llm-trading-sim/internal/engine"
	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/logger"
)

// Ranking is one agent's final standing.
type Ranking struct {
	Rank        int     `json:"rank"`
	Agent       string  `json:"agent_name"`
	TotalAssets float64 `json:"total_assets"`
	ReturnPct   float64 `json:"return_pct"`
	TradeCount  int     `json:"trades_count"`
	Positions   int     `json:"positions_count"`
}

// BenchmarkReturn is the buy-and-hold return of an index or symbol over
// the run, for comparison against the agents.
type BenchmarkReturn struct {
	Symbol     string  `json:"symbol"`
	StartClose float64 `json:"start_close"`
	EndClose   float64 `json:"end_close"`
	ReturnPct  float64 `json:"return_pct"`
}

// CompetitionSummary ranks all agents of a run, best return first.
type CompetitionSummary struct {
	GeneratedAt string           `json:"generated_at"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	Benchmark   *BenchmarkReturn `json:"benchmark,omitempty"`
	Rankings    []Ranking        `json:"rankings"`
}

// BuildCompetition ranks the engines by cumulative return. Ties break by
// agent name so the output is stable across runs.
func BuildCompetition(ctx context.Context, engines []*engine.Engine, source interfaces.PriceSource, benchmark, start, end string) CompetitionSummary {
	cs := CompetitionSummary{
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		StartDate:   start,
		EndDate:     end,
	}

	for _, e := range engines {
		s := e.Summary()
		cs.Rankings = append(cs.Rankings, Ranking{
			Agent:       s.Agent,
			TotalAssets: s.TotalAssets,
			ReturnPct:   s.ReturnPct,
			TradeCount:  s.TradeCount,
			Positions:   s.PositionCount,
		})
	}
	sort.Slice(cs.Rankings, func(i, j int) bool {
		if cs.Rankings[i].ReturnPct != cs.Rankings[j].ReturnPct {
			return cs.Rankings[i].ReturnPct > cs.Rankings[j].ReturnPct
		}
		return cs.Rankings[i].Agent < cs.Rankings[j].Agent
	})
	for i := range cs.Rankings {
		cs.Rankings[i].Rank = i + 1
	}

	if benchmark != "" && source != nil {
		if br, err := benchmarkReturn(ctx, source, benchmark, start, end); err != nil {
			logger.Warn(ctx, "Benchmark return unavailable", "symbol", benchmark, "error", err.Error())
		} else {
			cs.Benchmark = br
		}
	}
	return cs
}

func benchmarkReturn(ctx context.Context, source interfaces.PriceSource, symbol, start, end string) (*BenchmarkReturn, error) {
	first, ok, err := source.Close(ctx, symbol, start)
	if err != nil {
		return nil, err
	}
	if !ok || first.Close <= 0 {
		return nil, fmt.Errorf("no bar for %s on %s", symbol, start)
	}
	last, ok, err := source.Close(ctx, symbol, end)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no bar for %s on %s", symbol, end)
	}
	return &BenchmarkReturn{
		Symbol:     symbol,
		StartClose: first.Close,
		EndClose:   last.Close,
		ReturnPct:  (last.Close - first.Close) / first.Close * 100,
	}, nil
}

// WriteCompetition writes competition_summary.json into dir.
func WriteCompetition(dir string, cs CompetitionSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	b, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "competition_summary.json"), b, 0o644)
}
