// Package sample is an offline market data source producing deterministic
// synthetic candles. It backs tests and the demo configuration.
package sample

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"algocrafter/internal/domain/model"
)

// MaxCandles caps a single Klines call.
const MaxCandles = 5000

// Remote generates a seeded random walk per symbol. The same symbol,
// interval and timestamp always yield the same candle.
type Remote struct {
	symbols []string
	// Fail, when set, is returned by every Klines call.
	Fail error
}

func NewRemote(symbols []string) *Remote {
	return &Remote{symbols: append([]string(nil), symbols...)}
}

func (r *Remote) Symbols(context.Context) ([]string, error) {
	return append([]string(nil), r.symbols...), nil
}

func (r *Remote) Klines(ctx context.Context, symbol string, interval model.TimeInterval, start, end time.Time) ([]model.Candle, error) {
	if r.Fail != nil {
		return nil, r.Fail
	}
	step := interval.Duration()
	if step <= 0 {
		return nil, model.Invalidf("unsupported interval %s", interval)
	}

	var out []model.Candle
	for ts := start.Truncate(step); !ts.After(end) && len(out) < MaxCandles; ts = ts.Add(step) {
		if ts.Before(start) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, CandleAt(symbol, interval, ts))
	}
	return out, nil
}

func seed(symbol string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	return int64(h.Sum64() >> 1)
}

// CandleAt returns the synthetic candle opening at ts.
func CandleAt(symbol string, interval model.TimeInterval, ts time.Time) model.Candle {
	step := int64(interval.Duration() / time.Second)
	bucket := ts.Unix() / step
	rng := rand.New(rand.NewSource(seed(symbol) ^ bucket*2654435761 ^ int64(interval)))

	base := 50 + float64(seed(symbol)%950)
	// A slow sine drift keeps neighbouring candles close together.
	drift := 1 + 0.05*math.Sin(2*math.Pi*float64(bucket%360)/360)
	open := base * drift * (1 + (rng.Float64()-0.5)*0.01)
	closePrice := open * (1 + (rng.Float64()-0.5)*0.02)
	high := math.Max(open, closePrice) * (1 + rng.Float64()*0.005)
	low := math.Min(open, closePrice) * (1 - rng.Float64()*0.005)
	volume := 100 + rng.Float64()*900

	return model.Candle{
		Symbol:    strings.ToUpper(symbol),
		Timestamp: ts.UTC(),
		Open:      decimal.NewFromFloat(open).Round(2),
		High:      decimal.NewFromFloat(high).Round(2),
		Low:       decimal.NewFromFloat(low).Round(2),
		Close:     decimal.NewFromFloat(closePrice).Round(2),
		Volume:    decimal.NewFromFloat(volume).Round(4),
		Interval:  interval,
	}
}
