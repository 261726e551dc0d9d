package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"llm-trading-sim/internal/engine"
	"llm-trading-sim/internal/types"
)

type fixedSource struct {
	closes map[string]map[string]float64
}

func (f *fixedSource) Close(_ context.Context, symbol, date string) (types.Bar, bool, error) {
	c, ok := f.closes[symbol][date]
	if !ok {
		return types.Bar{}, false, nil
	}
	return types.Bar{Symbol: symbol, Date: date, Close: c}, true, nil
}

func preparedEngine(t *testing.T, name string, buyPrice, markPrice float64) *engine.Engine {
	t.Helper()
	ctx := context.Background()
	e := engine.New(name, 1_000_000, engine.DefaultFees(), engine.DefaultLotSize, nil)
	if err := e.Initialize(ctx, "2024-01-02"); err != nil {
		t.Fatal(err)
	}
	e.RecordDailyValue(ctx, "2024-01-02")
	e.AdvanceTo(ctx, "2024-01-03")
	e.Buy(ctx, "2024-01-03", "AAA", "Alpha", buyPrice, 1000, "entry")
	e.MarkToMarket(map[string]float64{"AAA": markPrice})
	e.RecordDailyValue(ctx, "2024-01-03")
	return e
}

func TestCompetitionRanksByReturn(t *testing.T) {
	winner := preparedEngine(t, "winner", 10.00, 12.00)
	loser := preparedEngine(t, "loser", 10.00, 9.00)
	flat := preparedEngine(t, "flat", 10.00, 10.00)

	cs := BuildCompetition(context.Background(),
		[]*engine.Engine{loser, flat, winner}, nil, "", "2024-01-02", "2024-01-03")

	if len(cs.Rankings) != 3 {
		t.Fatalf("expected 3 rankings, got %d", len(cs.Rankings))
	}
	if cs.Rankings[0].Agent != "winner" || cs.Rankings[2].Agent != "loser" {
		t.Errorf("wrong order: %+v", cs.Rankings)
	}
	for i, r := range cs.Rankings {
		if r.Rank != i+1 {
			t.Errorf("rank %d assigned to position %d", r.Rank, i)
		}
	}
	if cs.Rankings[0].ReturnPct <= cs.Rankings[1].ReturnPct {
		t.Error("rankings must be in descending return order")
	}
}

func TestCompetitionBenchmark(t *testing.T) {
	source := &fixedSource{closes: map[string]map[string]float64{
		"000300": {"2024-01-02": 3000.0, "2024-01-31": 3150.0},
	}}
	e := preparedEngine(t, "solo", 10.00, 10.00)

	cs := BuildCompetition(context.Background(),
		[]*engine.Engine{e}, source, "000300", "2024-01-02", "2024-01-31")

	if cs.Benchmark == nil {
		t.Fatal("expected benchmark return")
	}
	if cs.Benchmark.ReturnPct < 4.99 || cs.Benchmark.ReturnPct > 5.01 {
		t.Errorf("expected ~5%% benchmark return, got %f", cs.Benchmark.ReturnPct)
	}

	// missing benchmark data must not fail the build
	cs = BuildCompetition(context.Background(),
		[]*engine.Engine{e}, source, "999999", "2024-01-02", "2024-01-31")
	if cs.Benchmark != nil {
		t.Error("unavailable benchmark must be omitted")
	}
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir()
	e := preparedEngine(t, "alpha", 10.00, 11.00)

	if err := WriteAgentReport(dir, BuildAgentReport(e)); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "alpha_report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var r AgentReport
	if err := json.Unmarshal(b, &r); err != nil {
		t.Fatal(err)
	}
	if r.Summary.Agent != "alpha" || len(r.Trades) != 1 || len(r.Snapshots) != 2 {
		t.Errorf("unexpected report: %+v", r.Summary)
	}

	cs := BuildCompetition(context.Background(), []*engine.Engine{e}, nil, "", "2024-01-02", "2024-01-03")
	if err := WriteCompetition(dir, cs); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "competition_summary.json")); err != nil {
		t.Error("competition_summary.json not written")
	}
}
