package engine

import (
	"testing"
)

func newTestLedger() *Ledger {
	return NewLedger(1_000_000, DefaultFees(), DefaultLotSize)
}

func TestBuyDebitsNotionalPlusCommission(t *testing.T) {
	l := newTestLedger()

	if !l.Buy("2024-01-02", "600519", "Moutai", 10.00, 1000, "test") {
		t.Fatal("buy should succeed")
	}
	// 10000 notional + 5 minimum commission
	if !approxEqual(l.Cash(), 989_995) {
		t.Errorf("expected cash 989995, got %f", l.Cash())
	}
	pos, ok := l.Position("600519")
	if !ok {
		t.Fatal("position missing after buy")
	}
	if pos.Shares != 1000 || !approxEqual(pos.AvgCost, 10.00) {
		t.Errorf("unexpected position: %+v", pos)
	}
}

func TestBuyRejectsNonLotShares(t *testing.T) {
	l := newTestLedger()

	for _, shares := range []int{0, -100, 150, 99} {
		if l.Buy("2024-01-02", "600519", "Moutai", 10.00, shares, "test") {
			t.Errorf("buy with %d shares should fail", shares)
		}
	}
	if !approxEqual(l.Cash(), 1_000_000) || l.PositionCount() != 0 || len(l.Trades()) != 0 {
		t.Error("failed buys must leave the ledger untouched")
	}
}

func TestBuyRejectsNonPositivePrice(t *testing.T) {
	l := newTestLedger()

	if l.Buy("2024-01-02", "600519", "Moutai", 0, 100, "test") {
		t.Error("zero price should be rejected")
	}
	if l.Buy("2024-01-02", "600519", "Moutai", -1, 100, "test") {
		t.Error("negative price should be rejected")
	}
}

func TestBuyRejectsInsufficientCash(t *testing.T) {
	l := NewLedger(10_000, DefaultFees(), DefaultLotSize)

	// notional exactly 10000 but commission pushes total to 10005
	if l.Buy("2024-01-02", "600519", "Moutai", 100.00, 100, "test") {
		t.Error("buy should fail when notional + commission exceeds cash")
	}
	if !approxEqual(l.Cash(), 10_000) {
		t.Errorf("cash must be unchanged after rejected buy, got %f", l.Cash())
	}
	if l.PositionCount() != 0 {
		t.Error("no position may exist after rejected buy")
	}
}

func TestAverageCostMergesAcrossBuys(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	l.Buy("2024-01-03", "600519", "Moutai", 12.00, 100, "t2")

	pos, _ := l.Position("600519")
	if pos.Shares != 200 {
		t.Fatalf("expected 200 shares, got %d", pos.Shares)
	}
	if !approxEqual(pos.AvgCost, 11.00) {
		t.Errorf("expected avg cost 11, got %f", pos.AvgCost)
	}
}

func TestSellKeepsAverageCost(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	l.Buy("2024-01-03", "600519", "Moutai", 12.00, 100, "t2")
	// odd-lot sells are allowed; only buys must be lot multiples
	if !l.Sell("2024-01-04", "600519", "Moutai", 13.00, 150, "t3") {
		t.Fatal("sell should succeed")
	}

	pos, ok := l.Position("600519")
	if !ok {
		t.Fatal("partial sell must keep the position")
	}
	if pos.Shares != 50 {
		t.Errorf("expected 50 shares remaining, got %d", pos.Shares)
	}
	if !approxEqual(pos.AvgCost, 11.00) {
		t.Errorf("avg cost must not change on sell, got %f", pos.AvgCost)
	}
}

func TestSellExhaustingPositionRemovesIt(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	l.Sell("2024-01-03", "600519", "Moutai", 11.00, 100, "t2")

	if _, ok := l.Position("600519"); ok {
		t.Error("fully sold position must be removed")
	}
	if l.PositionCount() != 0 {
		t.Errorf("expected empty portfolio, got %d positions", l.PositionCount())
	}
}

func TestSellRejectsOversell(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	cashBefore := l.Cash()

	if l.Sell("2024-01-03", "600519", "Moutai", 11.00, 200, "t2") {
		t.Error("selling more than held must fail")
	}
	if l.Sell("2024-01-03", "000001", "Ping An", 11.00, 100, "t3") {
		t.Error("selling an absent symbol must fail")
	}
	if l.Sell("2024-01-03", "600519", "Moutai", 11.00, 0, "t4") {
		t.Error("selling zero shares must fail")
	}
	if !approxEqual(l.Cash(), cashBefore) {
		t.Error("rejected sells must leave cash unchanged")
	}
	pos, _ := l.Position("600519")
	if pos.Shares != 100 {
		t.Error("rejected sells must leave the position unchanged")
	}
}

func TestCashConservationPerTrade(t *testing.T) {
	l := newTestLedger()

	before := l.Cash()
	l.Buy("2024-01-02", "600519", "Moutai", 25.50, 300, "t1")
	trade := l.Trades()[0]
	if !approxEqual(before-l.Cash(), trade.Amount+trade.Commission) {
		t.Error("buy cash delta must equal notional plus commission")
	}

	before = l.Cash()
	l.Sell("2024-01-03", "600519", "Moutai", 26.00, 300, "t2")
	trade = l.Trades()[1]
	if !approxEqual(l.Cash()-before, trade.Amount-trade.Commission) {
		t.Error("sell cash delta must equal notional minus commission and stamp tax")
	}
}

func TestStaleMarkTolerated(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	l.UpdatePositionsPrice(map[string]float64{"000001": 99.0})

	pos, _ := l.Position("600519")
	if !approxEqual(pos.LastPrice, 10.00) {
		t.Errorf("symbol absent from closes must keep its mark, got %f", pos.LastPrice)
	}

	l.UpdatePositionsPrice(map[string]float64{"600519": 10.50})
	pos, _ = l.Position("600519")
	if !approxEqual(pos.LastPrice, 10.50) {
		t.Errorf("expected mark 10.5, got %f", pos.LastPrice)
	}
}

func TestReturnPctAgainstFirstSnapshot(t *testing.T) {
	l := newTestLedger()

	if l.ReturnPct() != 0 {
		t.Error("return must be zero before the first snapshot")
	}

	l.RecordDailyValue("2024-01-02")
	l.Buy("2024-01-03", "600519", "Moutai", 10.00, 1000, "t1")
	l.UpdatePositionsPrice(map[string]float64{"600519": 11.00})
	snap := l.RecordDailyValue("2024-01-03")

	// 989995 cash + 11000 market value = 1000995 against a 1000000 base
	if !approxEqual(snap.TotalAssets, 1_000_995) {
		t.Errorf("expected total assets 1000995, got %f", snap.TotalAssets)
	}
	if !approxEqual(snap.ReturnPct, 0.0995) {
		t.Errorf("expected return 0.0995%%, got %f", snap.ReturnPct)
	}
}

func TestRecordDailyValueIdempotentWithoutChanges(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	first := l.RecordDailyValue("2024-01-02")
	second := l.RecordDailyValue("2024-01-02")

	if first != second {
		t.Errorf("repeated snapshots without changes must match: %+v vs %+v", first, second)
	}
	if len(l.Snapshots()) != 2 {
		t.Errorf("expected 2 snapshots, got %d", len(l.Snapshots()))
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	l.RecordDailyValue("2024-01-02")
	l.Reset()

	if !approxEqual(l.Cash(), 1_000_000) || l.PositionCount() != 0 ||
		len(l.Trades()) != 0 || len(l.Snapshots()) != 0 {
		t.Error("reset must restore the initial empty state")
	}
}

func TestViewIsReadOnlyProjection(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	view := l.View("2024-01-02")

	if len(view.Positions) != 1 {
		t.Fatalf("expected 1 position in view, got %d", len(view.Positions))
	}
	view.Positions[0].Shares = 9999

	pos, _ := l.Position("600519")
	if pos.Shares != 100 {
		t.Error("mutating the view must not affect the ledger")
	}
}

func TestPositionsSortedBySymbol(t *testing.T) {
	l := newTestLedger()

	l.Buy("2024-01-02", "600519", "Moutai", 10.00, 100, "t1")
	l.Buy("2024-01-02", "000001", "Ping An", 10.00, 100, "t2")
	l.Buy("2024-01-02", "300750", "CATL", 10.00, 100, "t3")

	positions := l.Positions()
	for i := 1; i < len(positions); i++ {
		if positions[i-1].Symbol >= positions[i].Symbol {
			t.Errorf("positions not sorted: %s before %s", positions[i-1].Symbol, positions[i].Symbol)
		}
	}
}
