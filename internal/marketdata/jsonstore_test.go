package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeSeries(t *testing.T, dir, symbol, body string) {
	t.Helper()
	path := filepath.Join(dir, "daily_prices_"+symbol+".json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

const aaaSeries = `{
  "Meta Data": {"2. Symbol": "AAA"},
  "Time Series (Daily)": {
    "2024-01-02": {"1. open": "10.00", "2. high": "10.50", "3. low": "9.80", "4. close": "10.20", "5. volume": "120000"},
    "2024-01-03": {"1. open": "10.20", "2. high": "11.10", "3. low": "10.10", "4. close": "11.00", "5. volume": "150000"}
  }
}`

func TestJSONStoreReadsBars(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "AAA", aaaSeries)
	store := NewJSONStore(dir)

	bar, ok, err := store.Close(context.Background(), "AAA", "2024-01-03")
	if err != nil || !ok {
		t.Fatalf("expected bar, got ok=%v err=%v", ok, err)
	}
	if bar.Open != 10.20 || bar.Close != 11.00 || bar.Volume != 150000 {
		t.Errorf("unexpected bar: %+v", bar)
	}
}

func TestJSONStoreMissingDateIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "AAA", aaaSeries)
	store := NewJSONStore(dir)

	_, ok, err := store.Close(context.Background(), "AAA", "2024-01-06")
	if err != nil {
		t.Fatalf("missing date must not error: %v", err)
	}
	if ok {
		t.Error("missing date must report ok=false")
	}
}

func TestJSONStoreMissingSymbolFile(t *testing.T) {
	store := NewJSONStore(t.TempDir())

	_, ok, err := store.Close(context.Background(), "ZZZ", "2024-01-02")
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if ok {
		t.Error("missing file must report ok=false")
	}
}

func TestJSONStoreMalformedNumber(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "BAD", `{
  "Time Series (Daily)": {
    "2024-01-02": {"1. open": "oops", "2. high": "1", "3. low": "1", "4. close": "1", "5. volume": "1"}
  }
}`)
	store := NewJSONStore(dir)

	if _, _, err := store.Close(context.Background(), "BAD", "2024-01-02"); err == nil {
		t.Error("unparseable field must surface as an error")
	}
}

func TestTradingDatesUnionAcrossSymbols(t *testing.T) {
	dir := t.TempDir()
	writeSeries(t, dir, "AAA", aaaSeries)
	writeSeries(t, dir, "BBB", `{
  "Time Series (Daily)": {
    "2024-01-03": {"1. open": "20", "2. high": "21", "3. low": "19", "4. close": "20.5", "5. volume": "5000"},
    "2024-01-04": {"1. open": "20.5", "2. high": "21", "3. low": "20", "4. close": "21.0", "5. volume": "6000"}
  }
}`)
	store := NewJSONStore(dir)

	dates, err := store.TradingDates(context.Background(), "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2024-01-02", "2024-01-03", "2024-01-04"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("expected %v, got %v", want, dates)
	}

	dates, err = store.TradingDates(context.Background(), "2024-01-03", "2024-01-03")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(dates, []string{"2024-01-03"}) {
		t.Errorf("range filter failed, got %v", dates)
	}
}
