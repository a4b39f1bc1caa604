package repository

import (
	"context"
	"time"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/flow"
)

// DefaultLatestCount is the candle count used when a caller passes zero.
const DefaultLatestCount = 100

// DefaultMaxAge is the staleness threshold used when a caller passes zero.
const DefaultMaxAge = 15 * time.Minute

// MarketDataRepository serves candle windows from a local cache backed by a
// remote source. Observables emit nil until something is cached.
type MarketDataRepository interface {
	MarketData(symbol string, interval model.TimeInterval, start, end time.Time) flow.Observable[*model.MarketData]
	LatestMarketData(symbol string, interval model.TimeInterval, count int) flow.Observable[*model.MarketData]
	// RealTimeCandles streams live candles until ctx is done.
	RealTimeCandles(ctx context.Context, symbol string, interval model.TimeInterval) (<-chan model.Candle, error)

	Refresh(ctx context.Context, symbol string, interval model.TimeInterval, start, end time.Time) (*model.MarketData, error)
	Cached(ctx context.Context, symbol string, interval model.TimeInterval) (*model.MarketData, error)
	Cache(ctx context.Context, data model.MarketData) error
	// ClearCache drops one interval, or every interval when interval is nil.
	ClearCache(ctx context.Context, symbol string, interval *model.TimeInterval) error

	AvailableSymbols(ctx context.Context) ([]string, error)
	IsSymbolAvailable(ctx context.Context, symbol string) (bool, error)
	SupportedIntervals() []model.TimeInterval
	LastUpdateTime(ctx context.Context, symbol string, interval model.TimeInterval) (*time.Time, error)
	NeedsUpdate(ctx context.Context, symbol string, interval model.TimeInterval, maxAge time.Duration) (bool, error)
}
