// Package marketdata implements the candle cache behind the market data
// repository and the remote sources feeding it.
package marketdata

import (
	"context"
	"time"

	"algocrafter/internal/domain/model"
)

// Remote fetches historical candles.
type Remote interface {
	Klines(ctx context.Context, symbol string, interval model.TimeInterval, start, end time.Time) ([]model.Candle, error)
	Symbols(ctx context.Context) ([]string, error)
}

// Streamer delivers live candles until ctx is done. The returned channel is
// closed when the stream ends.
type Streamer interface {
	Stream(ctx context.Context, symbol string, interval model.TimeInterval) (<-chan model.Candle, error)
}
