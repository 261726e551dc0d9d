package types

// Bar is one day of OHLCV data for a symbol. Dates are "YYYY-MM-DD".
type Bar struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Stock is one entry of the tradable universe shown to deciders.
type Stock struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Industry string  `json:"industry,omitempty"`
	Close    float64 `json:"close"`
	Change   float64 `json:"change"`
}

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

type Decision struct {
	Action string `json:"action"` // BUY, SELL or HOLD
	Symbol string `json:"symbol,omitempty"`
	Shares int    `json:"shares,omitempty"`
	Reason string `json:"reason"`
}

// PositionView is the read-only projection of an open position handed to
// deciders. Deciders never hold references to the ledger's own positions.
type PositionView struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Shares        int     `json:"shares"`
	AvgCost       float64 `json:"avg_cost"`
	LastPrice     float64 `json:"last_price"`
	MarketValue   float64 `json:"market_value"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// PortfolioView is the read-only portfolio state for one simulated date.
type PortfolioView struct {
	Date        string         `json:"date"`
	Cash        float64        `json:"cash"`
	MarketValue float64        `json:"market_value"`
	TotalAssets float64        `json:"total_assets"`
	ReturnPct   float64        `json:"return_pct"`
	Positions   []PositionView `json:"positions"`
	TradeCount  int            `json:"trade_count"`
}

type NewsArticle struct {
	Symbol      string `json:"symbol"`
	Source      string `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Summary     string `json:"summary,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}
