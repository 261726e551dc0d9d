package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"llm-trading-sim/internal/store"
)

func newTestEngine(states store.StateStore) *Engine {
	return New("tester", 1_000_000, DefaultFees(), DefaultLotSize, states)
}

func TestEngineFullRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(nil)

	if err := e.Initialize(ctx, "2024-01-02"); err != nil {
		t.Fatal(err)
	}
	e.RecordDailyValue(ctx, "2024-01-02")

	if err := e.AdvanceTo(ctx, "2024-01-03"); err != nil {
		t.Fatal(err)
	}
	if !e.Buy(ctx, "2024-01-03", "AAA", "Alpha", 10.00, 1000, "entry") {
		t.Fatal("buy should succeed")
	}
	if !approxEqual(e.Ledger().Cash(), 989_995) {
		t.Errorf("expected cash 989995 after buy, got %f", e.Ledger().Cash())
	}

	e.MarkToMarket(map[string]float64{"AAA": 11.00})
	snap := e.RecordDailyValue(ctx, "2024-01-03")
	if !approxEqual(snap.TotalAssets, 1_000_995) {
		t.Errorf("expected total assets 1000995, got %f", snap.TotalAssets)
	}
	if !approxEqual(snap.ReturnPct, 0.0995) {
		t.Errorf("expected return 0.0995%%, got %f", snap.ReturnPct)
	}

	if err := e.AdvanceTo(ctx, "2024-01-04"); err != nil {
		t.Fatal(err)
	}
	if !e.Sell(ctx, "2024-01-04", "AAA", "Alpha", 11.00, 1000, "exit") {
		t.Fatal("sell should succeed")
	}
	// proceeds 11000 - 5 commission - 11 stamp tax = 10984
	if !approxEqual(e.Ledger().Cash(), 1_000_979) {
		t.Errorf("expected cash 1000979 after sell, got %f", e.Ledger().Cash())
	}

	summary := e.Summary()
	if summary.TradeCount != 2 {
		t.Errorf("expected 2 trades, got %d", summary.TradeCount)
	}
	if summary.PositionCount != 0 {
		t.Errorf("expected empty portfolio, got %d positions", summary.PositionCount)
	}
}

func TestEngineGateRejectsMisdatedTrades(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(nil)
	e.Initialize(ctx, "2024-01-03")

	if e.Buy(ctx, "2024-01-02", "AAA", "Alpha", 10.00, 100, "backdated") {
		t.Error("backdated buy must be rejected")
	}
	if e.Buy(ctx, "2024-01-04", "AAA", "Alpha", 10.00, 100, "forward-dated") {
		t.Error("forward-dated buy must be rejected")
	}
	if e.Sell(ctx, "2024-01-04", "AAA", "Alpha", 10.00, 100, "forward-dated") {
		t.Error("forward-dated sell must be rejected")
	}
	if !approxEqual(e.Ledger().Cash(), 1_000_000) || len(e.Ledger().Trades()) != 0 {
		t.Error("gated trades must leave the ledger untouched")
	}

	if !e.Buy(ctx, "2024-01-03", "AAA", "Alpha", 10.00, 100, "on time") {
		t.Error("trade dated today must pass the gate")
	}
}

func TestEngineGateSweep(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	day := func(n int) string {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n).Format("2006-01-02")
	}

	for i := 0; i < 100; i++ {
		current := rng.Intn(200)
		offset := 1 + rng.Intn(60)

		e := newTestEngine(nil)
		e.Initialize(ctx, day(current))
		if e.Buy(ctx, day(current+offset), "AAA", "Alpha", 10.00, 100, "future") {
			t.Fatalf("buy dated %d days past the clock must be rejected", offset)
		}
		if e.Sell(ctx, day(current+offset), "AAA", "Alpha", 10.00, 100, "future") {
			t.Fatalf("sell dated %d days past the clock must be rejected", offset)
		}
		if len(e.Ledger().Trades()) != 0 {
			t.Fatal("gated trades must not reach the ledger")
		}
	}
}

func TestEngineAdvanceBackfillsMissedSnapshot(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(nil)
	e.Initialize(ctx, "2024-01-02")

	// leave 2024-01-02 without an explicit snapshot
	if err := e.AdvanceTo(ctx, "2024-01-03"); err != nil {
		t.Fatal(err)
	}
	snaps := e.Ledger().Snapshots()
	if len(snaps) != 1 || snaps[0].Date != "2024-01-02" {
		t.Fatalf("expected backfilled snapshot for 2024-01-02, got %+v", snaps)
	}

	// a date that was snapshotted must not be snapshotted again on advance
	e.RecordDailyValue(ctx, "2024-01-03")
	if err := e.AdvanceTo(ctx, "2024-01-04"); err != nil {
		t.Fatal(err)
	}
	snaps = e.Ledger().Snapshots()
	if len(snaps) != 2 {
		t.Errorf("expected 2 snapshots, got %d", len(snaps))
	}
}

func TestEngineRejectsBackwardAdvance(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(nil)
	e.Initialize(ctx, "2024-01-05")

	if err := e.AdvanceTo(ctx, "2024-01-03"); err == nil {
		t.Error("backward advance must be rejected")
	}
}

func TestEngineStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	states, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	e := New("roundtrip", 1_000_000, DefaultFees(), DefaultLotSize, states)
	e.Initialize(ctx, "2024-01-02")
	e.Buy(ctx, "2024-01-02", "AAA", "Alpha", 10.00, 1000, "entry")
	e.MarkToMarket(map[string]float64{"AAA": 10.50})
	e.RecordDailyValue(ctx, "2024-01-02")
	e.AdvanceTo(ctx, "2024-01-03")

	loaded, found, err := states.Load("roundtrip")
	if err != nil || !found {
		t.Fatalf("load failed: found=%v err=%v", found, err)
	}

	restored := New("roundtrip", 0, DefaultFees(), DefaultLotSize, nil)
	if err := restored.RestoreState(loaded); err != nil {
		t.Fatal(err)
	}

	if !approxEqual(restored.Ledger().Cash(), e.Ledger().Cash()) {
		t.Errorf("cash mismatch after restore: %f vs %f", restored.Ledger().Cash(), e.Ledger().Cash())
	}
	origPos, _ := e.Ledger().Position("AAA")
	restPos, ok := restored.Ledger().Position("AAA")
	if !ok || origPos != restPos {
		t.Errorf("position mismatch after restore: %+v vs %+v", restPos, origPos)
	}
	if len(restored.Ledger().Trades()) != len(e.Ledger().Trades()) {
		t.Error("trade history length mismatch after restore")
	}
	if cutoff, _ := restored.CutoffDate(); cutoff != "2024-01-03" {
		t.Errorf("expected restored clock at 2024-01-03, got %s", cutoff)
	}
}

func TestEngineRestoreRejectsForeignState(t *testing.T) {
	e := newTestEngine(nil)
	if err := e.RestoreState(&store.AgentState{AgentName: "someone-else"}); err == nil {
		t.Error("restoring another agent's state must fail")
	}
}
