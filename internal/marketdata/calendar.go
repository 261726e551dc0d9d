package marketdata

import (
	"context"
	"fmt"
	"time"

	"llm-trading-sim/internal/interfaces"
)

// WeekdayCalendar approximates a trading calendar as Monday through
// Friday. Exchange holidays show up as dates where no symbol has a bar;
// the driver already tolerates those, so the approximation only costs a
// few idle iterations per year.
type WeekdayCalendar struct{}

var _ interfaces.Calendar = (*WeekdayCalendar)(nil)

func (WeekdayCalendar) TradingDates(_ context.Context, start, end string) ([]string, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("bad start date %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("bad end date %q: %w", end, err)
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}
