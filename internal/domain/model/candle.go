package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDojiThreshold is the body/range ratio below which a candle is a doji.
var DefaultDojiThreshold = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// Candle is one OHLCV bar.
type Candle struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  TimeInterval    `json:"interval"`
}

func (c Candle) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return Invalidf("candle symbol cannot be blank")
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"open", c.Open}, {"high", c.High}, {"low", c.Low}, {"close", c.Close}, {"volume", c.Volume},
	} {
		if f.value.IsNegative() {
			return Invalidf("candle %s price cannot be negative", f.name)
		}
	}
	switch {
	case c.High.LessThan(c.Low):
		return Invalidf("candle high cannot be below low")
	case c.High.LessThan(c.Open):
		return Invalidf("candle high cannot be below open")
	case c.High.LessThan(c.Close):
		return Invalidf("candle high cannot be below close")
	case c.Low.GreaterThan(c.Open):
		return Invalidf("candle low cannot be above open")
	case c.Low.GreaterThan(c.Close):
		return Invalidf("candle low cannot be above close")
	}
	return nil
}

func (c Candle) BodySize() decimal.Decimal { return c.Close.Sub(c.Open).Abs() }

func (c Candle) Range() decimal.Decimal { return c.High.Sub(c.Low) }

func (c Candle) UpperShadow() decimal.Decimal { return c.High.Sub(decimal.Max(c.Open, c.Close)) }

func (c Candle) LowerShadow() decimal.Decimal { return decimal.Min(c.Open, c.Close).Sub(c.Low) }

func (c Candle) IsBullish() bool { return c.Close.GreaterThan(c.Open) }

func (c Candle) IsBearish() bool { return c.Close.LessThan(c.Open) }

// IsDoji reports a body smaller than threshold times the range. A zero
// threshold means DefaultDojiThreshold.
func (c Candle) IsDoji(threshold decimal.Decimal) bool {
	if threshold.IsZero() {
		threshold = DefaultDojiThreshold
	}
	r := c.Range()
	if r.IsZero() {
		return true
	}
	return c.BodySize().Div(r).LessThanOrEqual(threshold)
}

// PercentageChange is the open to close move in percent, zero when open is zero.
func (c Candle) PercentageChange() decimal.Decimal {
	if c.Open.IsZero() {
		return decimal.Zero
	}
	return c.Close.Sub(c.Open).Div(c.Open).Mul(hundred)
}
