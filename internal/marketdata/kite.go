package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/logger"
	"llm-trading-sim/internal/types"
)

// KiteSource serves daily bars from the Zerodha Kite historical API, for
// running simulations against NSE/BSE data instead of local JSON files.
// Whole-month candle batches are fetched once per symbol and cached, so a
// multi-day run costs one API call per symbol per month.
type KiteSource struct {
	kc       *kiteconnect.Client
	exchange string
	tokens   map[string]int // symbol -> instrument token

	mu    sync.Mutex
	cache map[string]map[string]types.Bar // symbol -> date -> bar
}

var _ interfaces.PriceSource = (*KiteSource)(nil)

func NewKiteSource(apiKey, accessToken, exchange string, tokens map[string]int) *KiteSource {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &KiteSource{
		kc:       kc,
		exchange: exchange,
		tokens:   tokens,
		cache:    make(map[string]map[string]types.Bar),
	}
}

func (s *KiteSource) Close(ctx context.Context, symbol, date string) (types.Bar, bool, error) {
	token, ok := s.tokens[symbol]
	if !ok {
		return types.Bar{}, false, fmt.Errorf("no instrument token for %s on %s", symbol, s.exchange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.cache[symbol]
	if !ok {
		series = make(map[string]types.Bar)
		s.cache[symbol] = series
	}
	if bar, ok := series[date]; ok {
		return bar, bar.Close != 0, nil
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return types.Bar{}, false, fmt.Errorf("bad date %q: %w", date, err)
	}
	from := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	candles, err := s.kc.GetHistoricalData(token, "day", from, to, false, false)
	if err != nil {
		return types.Bar{}, false, fmt.Errorf("kite historical %s %s: %w", symbol, date, err)
	}
	logger.Debug(ctx, "Fetched kite candles", "symbol", symbol, "month", from.Format("2006-01"), "count", len(candles))

	// negative-cache the whole month so holidays don't refetch
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		series[d.Format("2006-01-02")] = types.Bar{Symbol: symbol, Date: d.Format("2006-01-02")}
	}
	for _, c := range candles {
		cd := c.Date.Time.Format("2006-01-02")
		series[cd] = types.Bar{
			Symbol: symbol,
			Date:   cd,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: float64(c.Volume),
		}
	}

	bar := series[date]
	return bar, bar.Close != 0, nil
}
