package sample

import (
	"context"
	"time"

	"algocrafter/internal/domain/model"
)

// Stream emits the next synthetic candle every Period.
type Stream struct {
	Period time.Duration
	Now    func() time.Time
}

func (s *Stream) Stream(ctx context.Context, symbol string, interval model.TimeInterval) (<-chan model.Candle, error) {
	period := s.Period
	if period <= 0 {
		period = time.Second
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	step := interval.Duration()
	if step <= 0 {
		return nil, model.Invalidf("unsupported interval %s", interval)
	}

	out := make(chan model.Candle)
	go func() {
		defer close(out)
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		next := now().Truncate(step).Add(step)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case out <- CandleAt(symbol, interval, next):
					next = next.Add(step)
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
