// Package scheduler refreshes stale watchlist market data on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/metrics"
	"algocrafter/logger"
)

const component = "scheduler"

// Refresher is the slice of the refresh use case the scheduler drives.
type Refresher interface {
	RefreshIfStale(ctx context.Context, symbol string, interval model.TimeInterval, maxAge time.Duration) (*model.MarketData, error)
}

// Entry is one symbol and interval kept fresh.
type Entry struct {
	Symbol   string
	Interval model.TimeInterval
}

type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	entries   []Entry
	maxAge    time.Duration
	log       *logger.Log

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	runs   int
}

func New(refresher Refresher, entries []Entry, maxAge time.Duration, log *logger.Log) *Scheduler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		refresher: refresher,
		entries:   append([]Entry(nil), entries...),
		maxAge:    maxAge,
		log:       log,
		ctx:       context.Background(),
	}
}

// Register adds the refresh job on spec, a six-field cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow(s.context()) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start runs registered jobs until Stop or until ctx ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	s.cron.Start()
	s.log.WithComponent(component).WithFields(logger.Fields{"entries": len(s.entries)}).Info("scheduler started")
}

// Stop cancels a running refresh and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	s.log.WithComponent(component).Info("scheduler stopped")
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Runs counts completed passes over the watchlist.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// RunNow refreshes every stale entry once. A failing entry is logged and
// the pass continues.
func (s *Scheduler) RunNow(ctx context.Context) {
	log := s.log.WithComponent(component)
	began := time.Now()
	failures := 0
	for _, e := range s.entries {
		if ctx.Err() != nil {
			break
		}
		fields := logger.Fields{"symbol": e.Symbol, "interval": e.Interval.String()}
		data, err := s.refresher.RefreshIfStale(ctx, e.Symbol, e.Interval, s.maxAge)
		if err != nil {
			failures++
			log.WithError(err).WithFields(fields).Warn("scheduled refresh failed")
			continue
		}
		if data != nil {
			fields["candles"] = data.CandleCount()
		}
		log.WithFields(fields).Debug("entry checked")
	}

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	logger.LogPerformanceEntry(log, component, "refresh_pass", time.Since(began), logger.Fields{"entries": len(s.entries), "failures": failures})
	metrics.EmitMetric(s.log, component, metrics.SchedulerPasses, 1, nil)
	metrics.EmitMetric(s.log, component, metrics.SchedulerFailures, failures, nil)
}
