package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"algocrafter/internal/domain/model"
	"algocrafter/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeRefresher) RefreshIfStale(_ context.Context, symbol string, _ model.TimeInterval, maxAge time.Duration) (*model.MarketData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbol)
	if err := f.fail[symbol]; err != nil {
		return nil, err
	}
	return &model.MarketData{Symbol: symbol}, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRunNowContinuesPastFailures(t *testing.T) {
	f := &fakeRefresher{fail: map[string]error{"BTCUSDT": errors.New("boom")}}
	s := New(f, []Entry{{"BTCUSDT", model.OneHour}, {"ETHUSDT", model.OneHour}}, time.Minute, logger.Discard())

	s.RunNow(context.Background())

	if got := f.callCount(); got != 2 {
		t.Fatalf("expected 2 refresh calls, got %d", got)
	}
	if s.Runs() != 1 {
		t.Fatalf("expected 1 run, got %d", s.Runs())
	}
}

func TestRunNowStopsOnCancelledContext(t *testing.T) {
	f := &fakeRefresher{}
	s := New(f, []Entry{{"BTCUSDT", model.OneHour}}, time.Minute, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.RunNow(ctx)

	if got := f.callCount(); got != 0 {
		t.Fatalf("expected no refresh calls, got %d", got)
	}
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(&fakeRefresher{}, nil, time.Minute, logger.Discard())
	if err := s.Register("not a cron"); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestCronTriggersRefresh(t *testing.T) {
	f := &fakeRefresher{}
	s := New(f, []Entry{{"BTCUSDT", model.OneMinute}}, time.Minute, logger.Discard())
	if err := s.Register("* * * * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for f.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("cron job never ran")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
