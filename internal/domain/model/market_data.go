package model

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MarketData is a window of candles for one symbol and interval, in
// ascending timestamp order.
type MarketData struct {
	Symbol      string       `json:"symbol"`
	Candles     []Candle     `json:"candles"`
	Interval    TimeInterval `json:"interval"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	LastUpdated time.Time    `json:"last_updated"`
}

func (m MarketData) Validate() error {
	if strings.TrimSpace(m.Symbol) == "" {
		return Invalidf("market data symbol cannot be blank")
	}
	if m.StartTime.After(m.EndTime) {
		return Invalidf("start time must be before or equal to end time")
	}
	for _, c := range m.Candles {
		if c.Symbol != m.Symbol {
			return Invalidf("all candles must have the same symbol as market data")
		}
		if c.Interval != m.Interval {
			return Invalidf("all candles must have the same interval as market data")
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (m MarketData) CandleCount() int { return len(m.Candles) }

func (m MarketData) IsEmpty() bool { return len(m.Candles) == 0 }

// Latest returns the newest candle.
func (m MarketData) Latest() (Candle, bool) {
	if m.IsEmpty() {
		return Candle{}, false
	}
	return m.Candles[len(m.Candles)-1], true
}

// Earliest returns the oldest candle.
func (m MarketData) Earliest() (Candle, bool) {
	if m.IsEmpty() {
		return Candle{}, false
	}
	return m.Candles[0], true
}

func (m MarketData) HighestPrice() (decimal.Decimal, bool) {
	if m.IsEmpty() {
		return decimal.Zero, false
	}
	hi := m.Candles[0].High
	for _, c := range m.Candles[1:] {
		hi = decimal.Max(hi, c.High)
	}
	return hi, true
}

func (m MarketData) LowestPrice() (decimal.Decimal, bool) {
	if m.IsEmpty() {
		return decimal.Zero, false
	}
	lo := m.Candles[0].Low
	for _, c := range m.Candles[1:] {
		lo = decimal.Min(lo, c.Low)
	}
	return lo, true
}

func (m MarketData) TotalVolume() decimal.Decimal {
	total := decimal.Zero
	for _, c := range m.Candles {
		total = total.Add(c.Volume)
	}
	return total
}

func (m MarketData) AverageVolume() decimal.Decimal {
	if m.IsEmpty() {
		return decimal.Zero
	}
	return m.TotalVolume().Div(decimal.NewFromInt(int64(len(m.Candles))))
}

// OverallPercentageChange compares the first open with the last close. It
// is undefined unless the first open is positive.
func (m MarketData) OverallPercentageChange() (decimal.Decimal, bool) {
	first, ok := m.Earliest()
	if !ok || !first.Open.IsPositive() {
		return decimal.Zero, false
	}
	last, _ := m.Latest()
	return last.Close.Sub(first.Open).Div(first.Open).Mul(hundred), true
}

// CandlesInRange returns the candles with start <= timestamp <= end.
func (m MarketData) CandlesInRange(start, end time.Time) []Candle {
	var out []Candle
	for _, c := range m.Candles {
		if !c.Timestamp.Before(start) && !c.Timestamp.After(end) {
			out = append(out, c)
		}
	}
	return out
}

// RecentCandles returns up to n candles, newest first.
func (m MarketData) RecentCandles(n int) []Candle {
	if n <= 0 {
		return nil
	}
	sorted := append([]Candle(nil), m.Candles...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// NeedsUpdate reports whether the data is older than maxAge.
func (m MarketData) NeedsUpdate(maxAge time.Duration, now time.Time) bool {
	return m.LastUpdated.Before(now.Add(-maxAge))
}

func (m MarketData) WithUpdatedTimestamp(now time.Time) MarketData {
	c := m
	c.Candles = append([]Candle(nil), m.Candles...)
	c.LastUpdated = now
	return c
}

// WithAdditionalCandles merges candles into m. On a timestamp clash the
// candle already held wins. EndTime moves to the newest candle.
func (m MarketData) WithAdditionalCandles(candles []Candle, now time.Time) MarketData {
	seen := make(map[int64]struct{}, len(m.Candles)+len(candles))
	merged := make([]Candle, 0, len(m.Candles)+len(candles))
	for _, group := range [][]Candle{m.Candles, candles} {
		for _, c := range group {
			key := c.Timestamp.UnixNano()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, c)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })

	out := m
	out.Candles = merged
	out.LastUpdated = now
	if len(merged) > 0 {
		out.EndTime = merged[len(merged)-1].Timestamp
	}
	return out
}
