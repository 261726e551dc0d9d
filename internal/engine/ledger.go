package engine

import (
	"sort"

	"llm-trading-sim/internal/types"
)

// DefaultLotSize is the minimum tradable share increment.
const DefaultLotSize = 100

// Position is one currently-held symbol. A position with zero shares is
// removed from the portfolio, never kept as an empty entry.
type Position struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Shares    int     `json:"shares"`
	AvgCost   float64 `json:"avg_cost"`
	LastPrice float64 `json:"last_price"`
}

func (p *Position) MarketValue() float64 {
	return float64(p.Shares) * p.LastPrice
}

func (p *Position) ProfitLoss() float64 {
	return (p.LastPrice - p.AvgCost) * float64(p.Shares)
}

func (p *Position) ProfitLossPct() float64 {
	if p.AvgCost == 0 {
		return 0
	}
	return (p.LastPrice - p.AvgCost) / p.AvgCost * 100
}

// TradeRecord is append-only; once recorded it is never mutated.
type TradeRecord struct {
	Date       string  `json:"date"`
	Action     string  `json:"action"` // "buy" or "sell"
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Shares     int     `json:"shares"`
	Amount     float64 `json:"amount"`
	Commission float64 `json:"commission"`
	Reason     string  `json:"reason"`
}

// DailySnapshot records portfolio value at the end of one simulated date.
// ReturnPct is always relative to the first snapshot, not the previous day.
type DailySnapshot struct {
	Date        string  `json:"date"`
	Cash        float64 `json:"cash"`
	MarketValue float64 `json:"market_value"`
	TotalAssets float64 `json:"total_assets"`
	ReturnPct   float64 `json:"return_pct"`
}

// Ledger owns the cash balance, open positions, trade log and snapshot
// sequence of one agent. It is pure bookkeeping: no dates are validated
// here, that is the clock's job. All mutations are all-or-nothing; a
// failed Buy or Sell leaves every field untouched.
type Ledger struct {
	lotSize     int
	fees        FeeModel
	initialCash float64
	cash        float64
	positions   map[string]*Position
	trades      []TradeRecord
	snapshots   []DailySnapshot
}

func NewLedger(initialCash float64, fees FeeModel, lotSize int) *Ledger {
	if lotSize <= 0 {
		lotSize = DefaultLotSize
	}
	l := &Ledger{lotSize: lotSize, fees: fees, initialCash: initialCash}
	l.Reset()
	return l
}

// Reset returns the ledger to its initial cash with no positions, trades
// or snapshots.
func (l *Ledger) Reset() {
	l.cash = l.initialCash
	l.positions = make(map[string]*Position)
	l.trades = nil
	l.snapshots = nil
}

func (l *Ledger) validShares(shares int) bool {
	return shares > 0 && shares%l.lotSize == 0
}

// Buy executes a purchase at the given price. It fails (returning false,
// with no mutation) on an invalid share count, non-positive price, or
// when notional plus commission exceeds available cash. No partial fills.
func (l *Ledger) Buy(date, symbol, name string, price float64, shares int, reason string) bool {
	if !l.validShares(shares) || price <= 0 {
		return false
	}

	amount := price * float64(shares)
	commission := l.fees.Commission(amount, false)
	totalCost := amount + commission
	if totalCost > l.cash {
		return false
	}

	l.cash -= totalCost

	if pos, ok := l.positions[symbol]; ok {
		totalShares := pos.Shares + shares
		costBasis := pos.AvgCost*float64(pos.Shares) + amount
		pos.Shares = totalShares
		pos.AvgCost = costBasis / float64(totalShares)
		pos.LastPrice = price
		if pos.Name == "" {
			pos.Name = name
		}
	} else {
		l.positions[symbol] = &Position{
			Symbol:    symbol,
			Name:      name,
			Shares:    shares,
			AvgCost:   price,
			LastPrice: price,
		}
	}

	l.trades = append(l.trades, TradeRecord{
		Date:       date,
		Action:     "buy",
		Symbol:     symbol,
		Name:       name,
		Price:      price,
		Shares:     shares,
		Amount:     amount,
		Commission: commission,
		Reason:     reason,
	})
	return true
}

// Sell liquidates part or all of a position. Unlike buys, sells are not
// required to be lot multiples: odd lots from rights issues must remain
// sellable, per exchange rules. Average cost is not recomputed on sell;
// realized P&L is implicitly price minus avg cost. A sell that exhausts
// the position removes it from the portfolio.
func (l *Ledger) Sell(date, symbol, name string, price float64, shares int, reason string) bool {
	if shares <= 0 || price <= 0 {
		return false
	}

	pos, ok := l.positions[symbol]
	if !ok || pos.Shares < shares {
		return false
	}

	amount := price * float64(shares)
	commission := l.fees.Commission(amount, true)
	l.cash += amount - commission

	pos.Shares -= shares
	pos.LastPrice = price
	if pos.Shares == 0 {
		delete(l.positions, symbol)
	}

	l.trades = append(l.trades, TradeRecord{
		Date:       date,
		Action:     "sell",
		Symbol:     symbol,
		Name:       name,
		Price:      price,
		Shares:     shares,
		Amount:     amount,
		Commission: commission,
		Reason:     reason,
	})
	return true
}

// UpdatePositionsPrice marks open positions to the supplied close prices.
// Symbols absent from the map keep their previous mark; a stale mark for
// an illiquid symbol is tolerated, not an error.
func (l *Ledger) UpdatePositionsPrice(closes map[string]float64) {
	for symbol, pos := range l.positions {
		if c, ok := closes[symbol]; ok {
			pos.LastPrice = c
		}
	}
}

func (l *Ledger) Cash() float64 { return l.cash }

func (l *Ledger) InitialCash() float64 { return l.initialCash }

func (l *Ledger) TotalMarketValue() float64 {
	var total float64
	for _, pos := range l.positions {
		total += pos.MarketValue()
	}
	return total
}

func (l *Ledger) TotalAssets() float64 {
	return l.cash + l.TotalMarketValue()
}

// ReturnPct is the cumulative return relative to the first recorded
// snapshot; zero until the first snapshot exists.
func (l *Ledger) ReturnPct() float64 {
	if len(l.snapshots) == 0 {
		return 0
	}
	base := l.snapshots[0].TotalAssets
	if base == 0 {
		return 0
	}
	return (l.TotalAssets() - base) / base * 100
}

// RecordDailyValue appends a snapshot computed from current cash and
// marks. Calling it twice for the same date without intervening trades or
// mark updates appends two snapshots with identical values.
func (l *Ledger) RecordDailyValue(date string) DailySnapshot {
	snap := DailySnapshot{
		Date:        date,
		Cash:        l.cash,
		MarketValue: l.TotalMarketValue(),
		TotalAssets: l.TotalAssets(),
	}
	if len(l.snapshots) > 0 {
		if base := l.snapshots[0].TotalAssets; base != 0 {
			snap.ReturnPct = (snap.TotalAssets - base) / base * 100
		}
	}
	l.snapshots = append(l.snapshots, snap)
	return snap
}

// Position returns a copy of the named position.
func (l *Ledger) Position(symbol string) (Position, bool) {
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

func (l *Ledger) PositionCount() int { return len(l.positions) }

// Positions returns copies of all open positions, ordered by symbol.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (l *Ledger) Trades() []TradeRecord {
	out := make([]TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *Ledger) Snapshots() []DailySnapshot {
	out := make([]DailySnapshot, len(l.snapshots))
	copy(out, l.snapshots)
	return out
}

// View builds the read-only projection handed to deciders.
func (l *Ledger) View(date string) types.PortfolioView {
	view := types.PortfolioView{
		Date:        date,
		Cash:        l.cash,
		MarketValue: l.TotalMarketValue(),
		TotalAssets: l.TotalAssets(),
		ReturnPct:   l.ReturnPct(),
		TradeCount:  len(l.trades),
	}
	for _, pos := range l.Positions() {
		view.Positions = append(view.Positions, types.PositionView{
			Symbol:        pos.Symbol,
			Name:          pos.Name,
			Shares:        pos.Shares,
			AvgCost:       pos.AvgCost,
			LastPrice:     pos.LastPrice,
			MarketValue:   pos.MarketValue(),
			ProfitLoss:    pos.ProfitLoss(),
			ProfitLossPct: pos.ProfitLossPct(),
		})
	}
	return view
}
