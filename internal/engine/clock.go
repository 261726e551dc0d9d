package engine

import "fmt"

// Clock tracks the current simulated date. It has two states:
// uninitialized (no date set) and active. Dates are "YYYY-MM-DD" strings,
// so lexical comparison is chronological comparison.
type Clock struct {
	current string
}

func NewClock() *Clock { return &Clock{} }

// Current returns the simulated date, and false before initialization.
func (c *Clock) Current() (string, bool) {
	return c.current, c.current != ""
}

// Initialize moves the clock to its starting date.
func (c *Clock) Initialize(start string) {
	c.current = start
}

// AdvanceTo moves the clock forward. Backward movement is rejected: the
// snapshot sequence must stay ordered by date, and a driver bug that
// shuffles dates should surface immediately instead of corrupting it.
func (c *Clock) AdvanceTo(date string) error {
	if c.current == "" {
		return fmt.Errorf("clock not initialized")
	}
	if date < c.current {
		return fmt.Errorf("cannot advance clock backward from %s to %s", c.current, date)
	}
	c.current = date
	return nil
}

// Gates reports whether a trade dated d may execute: only trades dated
// exactly at the current simulated date pass.
func (c *Clock) Gates(d string) bool {
	return c.current != "" && d == c.current
}

// Visible reports whether market data dated d may be observed: anything
// after the current simulated date is a look-ahead leak.
func (c *Clock) Visible(d string) bool {
	return c.current != "" && d <= c.current
}
