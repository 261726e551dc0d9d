package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"llm-trading-sim/internal/interfaces"
	"llm-trading-sim/internal/types"
)

// JSONStore serves daily bars from per-symbol JSON files named
// daily_prices_<symbol>.json, the format the data-fetch pipeline writes
// (alpha-vantage style: a "Time Series (Daily)" object keyed by date with
// stringified OHLCV fields). Files load lazily and stay cached.
type JSONStore struct {
	dir string

	mu   sync.RWMutex
	bars map[string]map[string]types.Bar // symbol -> date -> bar
}

var (
	_ interfaces.PriceSource = (*JSONStore)(nil)
	_ interfaces.Calendar    = (*JSONStore)(nil)
)

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir, bars: make(map[string]map[string]types.Bar)}
}

type seriesFile struct {
	Series map[string]map[string]string `json:"Time Series (Daily)"`
}

func (s *JSONStore) Close(_ context.Context, symbol, date string) (types.Bar, bool, error) {
	series, err := s.load(symbol)
	if err != nil {
		return types.Bar{}, false, err
	}
	bar, ok := series[date]
	return bar, ok, nil
}

// TradingDates unions the bar dates of every symbol file in the data
// directory across [start, end]. A date where any symbol traded counts.
func (s *JSONStore) TradingDates(_ context.Context, start, end string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", s.dir, err)
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "daily_prices_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		symbol := strings.TrimSuffix(strings.TrimPrefix(name, "daily_prices_"), ".json")
		series, err := s.load(symbol)
		if err != nil {
			return nil, err
		}
		for date := range series {
			if date >= start && date <= end {
				seen[date] = struct{}{}
			}
		}
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *JSONStore) load(symbol string) (map[string]types.Bar, error) {
	s.mu.RLock()
	series, ok := s.bars[symbol]
	s.mu.RUnlock()
	if ok {
		return series, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if series, ok := s.bars[symbol]; ok {
		return series, nil
	}

	path := filepath.Join(s.dir, "daily_prices_"+symbol+".json")
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// symbol without a data file: every lookup misses, not an error
		s.bars[symbol] = map[string]types.Bar{}
		return s.bars[symbol], nil
	}
	if err != nil {
		return nil, err
	}

	var file seriesFile
	if err := json.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	series = make(map[string]types.Bar, len(file.Series))
	for date, fields := range file.Series {
		bar, err := parseBar(symbol, date, fields)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		series[date] = bar
	}
	s.bars[symbol] = series
	return series, nil
}

func parseBar(symbol, date string, fields map[string]string) (types.Bar, error) {
	bar := types.Bar{Symbol: symbol, Date: date}
	for key, dst := range map[string]*float64{
		"1. open":   &bar.Open,
		"2. high":   &bar.High,
		"3. low":    &bar.Low,
		"4. close":  &bar.Close,
		"5. volume": &bar.Volume,
	} {
		raw, ok := fields[key]
		if !ok {
			return types.Bar{}, fmt.Errorf("bar %s/%s missing field %q", symbol, date, key)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Bar{}, fmt.Errorf("bar %s/%s field %q: %w", symbol, date, key, err)
		}
		*dst = v
	}
	return bar, nil
}
