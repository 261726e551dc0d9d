package random

import (
	"context"
	"testing"

	"llm-trading-sim/internal/types"
)

func testInputs() (types.PortfolioView, []types.Stock) {
	view := types.PortfolioView{
		Cash: 1_000_000,
		Positions: []types.PositionView{
			{Symbol: "600519", Shares: 500, AvgCost: 10, LastPrice: 11},
		},
	}
	universe := []types.Stock{
		{Symbol: "600519", Close: 11.0},
		{Symbol: "000001", Close: 25.0},
	}
	return view, universe
}

func TestSameSeedReplaysSameDecisions(t *testing.T) {
	ctx := context.Background()
	view, universe := testInputs()

	a := New(42, 100)
	b := New(42, 100)
	for i := 0; i < 50; i++ {
		da, _ := a.Decide(ctx, "2024-01-02", view, universe)
		db, _ := b.Decide(ctx, "2024-01-02", view, universe)
		if da != db {
			t.Fatalf("step %d diverged: %+v vs %+v", i, da, db)
		}
	}
}

func TestDecisionsAreLotMultiples(t *testing.T) {
	ctx := context.Background()
	view, universe := testInputs()

	d := New(7, 100)
	for i := 0; i < 200; i++ {
		dec, err := d.Decide(ctx, "2024-01-02", view, universe)
		if err != nil {
			t.Fatal(err)
		}
		switch dec.Action {
		case types.ActionBuy, types.ActionSell:
			if dec.Shares <= 0 || dec.Shares%100 != 0 {
				t.Fatalf("%s with non-lot shares %d", dec.Action, dec.Shares)
			}
			if dec.Symbol == "" {
				t.Fatalf("%s without symbol", dec.Action)
			}
		case types.ActionHold:
		default:
			t.Fatalf("unknown action %q", dec.Action)
		}
	}
}

func TestHoldsWhenUniverseEmpty(t *testing.T) {
	ctx := context.Background()
	d := New(1, 100)
	view := types.PortfolioView{Cash: 1_000_000}

	for i := 0; i < 100; i++ {
		dec, _ := d.Decide(ctx, "2024-01-02", view, nil)
		if dec.Action != types.ActionHold {
			t.Fatalf("empty universe and portfolio must always hold, got %+v", dec)
		}
	}
}
