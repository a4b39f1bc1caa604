package sample

import (
	"context"
	"testing"
	"time"

	"algocrafter/internal/domain/model"
)

func TestKlinesDeterministicAndValid(t *testing.T) {
	r := NewRemote([]string{"BTCUSDT"})
	end := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	start := end.Add(-24 * time.Hour)

	first, err := r.Klines(context.Background(), "BTCUSDT", model.OneHour, start, end)
	if err != nil {
		t.Fatalf("klines: %v", err)
	}
	if len(first) != 25 {
		t.Fatalf("expected 25 hourly candles, got %d", len(first))
	}
	second, _ := r.Klines(context.Background(), "btcusdt", model.OneHour, start, end)
	for i := range first {
		if err := first[i].Validate(); err != nil {
			t.Fatalf("candle %d invalid: %v", i, err)
		}
		if !first[i].Close.Equal(second[i].Close) {
			t.Fatalf("candle %d not deterministic", i)
		}
	}

	data := model.MarketData{Symbol: "BTCUSDT", Interval: model.OneHour, Candles: first, StartTime: start, EndTime: end}
	if err := data.Validate(); err != nil {
		t.Fatalf("window invalid: %v", err)
	}
}

func TestStreamEmitsConsecutiveCandles(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)
	s := &Stream{Period: time.Millisecond, Now: func() time.Time { return now }}
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := s.Stream(ctx, "ETHUSDT", model.FifteenMinutes)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	a, b := <-ch, <-ch
	if !a.Timestamp.Equal(now.Truncate(15*time.Minute).Add(15*time.Minute)) || b.Timestamp.Sub(a.Timestamp) != 15*time.Minute {
		t.Fatalf("unexpected timestamps %s %s", a.Timestamp, b.Timestamp)
	}
	cancel()
	for range ch {
	}
}
