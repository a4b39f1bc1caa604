package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/domain/repository"
	"algocrafter/internal/flow"
	"algocrafter/internal/metrics"
	"algocrafter/logger"
)

const component = "marketdata"

type Options struct {
	Remote   Remote
	Streamer Streamer
	// Symbols restricts the catalogue. Empty means whatever Remote lists.
	Symbols []string
	Limiter *rate.Limiter
	Now     func() time.Time
	Log     *logger.Log
}

type cacheKey struct {
	symbol   string
	interval model.TimeInterval
}

// Repository keeps one MutableState per symbol and interval. Every
// observable it hands out is a view over that cache entry.
type Repository struct {
	remote   Remote
	streamer Streamer
	symbols  []string
	limiter  *rate.Limiter
	now      func() time.Time
	log      *logger.Log

	mu    sync.Mutex
	cache map[cacheKey]*flow.MutableState[*model.MarketData]
}

var _ repository.MarketDataRepository = (*Repository)(nil)

func NewRepository(opts Options) *Repository {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if opts.Log == nil {
		opts.Log = logger.GetLogger()
	}
	symbols := make([]string, 0, len(opts.Symbols))
	for _, s := range opts.Symbols {
		symbols = append(symbols, normalize(s))
	}
	return &Repository{
		remote:   opts.Remote,
		streamer: opts.Streamer,
		symbols:  symbols,
		limiter:  opts.Limiter,
		now:      opts.Now,
		log:      opts.Log,
		cache:    make(map[cacheKey]*flow.MutableState[*model.MarketData]),
	}
}

func normalize(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }

func (r *Repository) entry(symbol string, interval model.TimeInterval) *flow.MutableState[*model.MarketData] {
	key := cacheKey{symbol: normalize(symbol), interval: interval}
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.cache[key]
	if !ok {
		st = flow.NewMutableState[*model.MarketData](nil)
		r.cache[key] = st
	}
	return st
}

func (r *Repository) MarketData(symbol string, interval model.TimeInterval, start, end time.Time) flow.Observable[*model.MarketData] {
	return flow.Map[*model.MarketData, *model.MarketData](r.entry(symbol, interval), func(m *model.MarketData) *model.MarketData {
		if m == nil {
			return nil
		}
		window := *m
		window.Candles = m.CandlesInRange(start, end)
		window.StartTime, window.EndTime = start, end
		return &window
	})
}

func (r *Repository) LatestMarketData(symbol string, interval model.TimeInterval, count int) flow.Observable[*model.MarketData] {
	if count <= 0 {
		count = repository.DefaultLatestCount
	}
	return flow.Map[*model.MarketData, *model.MarketData](r.entry(symbol, interval), func(m *model.MarketData) *model.MarketData {
		if m == nil {
			return nil
		}
		return latestWindow(*m, count)
	})
}

func latestWindow(m model.MarketData, count int) *model.MarketData {
	candles := m.Candles
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	out := m
	out.Candles = append([]model.Candle(nil), candles...)
	if len(out.Candles) > 0 {
		out.StartTime = out.Candles[0].Timestamp
		out.EndTime = out.Candles[len(out.Candles)-1].Timestamp
	}
	return &out
}

// RealTimeCandles forwards live candles and merges each one into the cache
// entry when that entry holds data.
func (r *Repository) RealTimeCandles(ctx context.Context, symbol string, interval model.TimeInterval) (<-chan model.Candle, error) {
	if r.streamer == nil {
		return nil, fmt.Errorf("no real-time source configured")
	}
	in, err := r.streamer.Stream(ctx, normalize(symbol), interval)
	if err != nil {
		return nil, fmt.Errorf("stream %s %s: %w", symbol, interval, err)
	}

	st := r.entry(symbol, interval)
	out := make(chan model.Candle)
	go func() {
		defer close(out)
		for c := range in {
			st.Update(func(m *model.MarketData) *model.MarketData {
				if m == nil {
					return nil
				}
				merged := m.WithAdditionalCandles([]model.Candle{c}, r.now())
				return &merged
			})
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Refresh fetches a window from the remote. It returns nil when the remote
// has no candles for it; caching is left to the caller.
func (r *Repository) Refresh(ctx context.Context, symbol string, interval model.TimeInterval, start, end time.Time) (*model.MarketData, error) {
	if r.remote == nil {
		return nil, fmt.Errorf("no remote market data source configured")
	}
	symbol = normalize(symbol)
	fields := logger.Fields{"symbol": symbol, "interval": interval.String()}
	entry := r.log.WithComponent(component).WithFields(fields)

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	began := time.Now()
	candles, err := r.remote.Klines(ctx, symbol, interval, start, end)
	if err != nil {
		metrics.EmitMetric(r.log, component, metrics.RefreshFailures, 1, fields)
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}
	logger.LogPerformanceEntry(entry, component, "refresh", time.Since(began), logger.Fields{"candles": len(candles)})
	metrics.EmitMetric(r.log, component, metrics.RefreshCandles, len(candles), fields)

	if len(candles) == 0 {
		entry.Debug("remote returned no candles")
		return nil, nil
	}
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })

	data := model.MarketData{
		Symbol:      symbol,
		Candles:     candles,
		Interval:    interval,
		StartTime:   start,
		EndTime:     end,
		LastUpdated: r.now(),
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("remote data for %s %s: %w", symbol, interval, err)
	}
	return &data, nil
}

func (r *Repository) Cached(_ context.Context, symbol string, interval model.TimeInterval) (*model.MarketData, error) {
	m := r.entry(symbol, interval).Value()
	if m == nil {
		return nil, nil
	}
	c := m.WithUpdatedTimestamp(m.LastUpdated)
	return &c, nil
}

func (r *Repository) Cache(_ context.Context, data model.MarketData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	stored := data.WithUpdatedTimestamp(data.LastUpdated)
	r.entry(data.Symbol, data.Interval).Set(&stored)
	r.log.WithComponent(component).WithFields(logger.Fields{
		"symbol":   stored.Symbol,
		"interval": stored.Interval.String(),
		"candles":  stored.CandleCount(),
	}).Debug("market data cached")
	return nil
}

func (r *Repository) ClearCache(_ context.Context, symbol string, interval *model.TimeInterval) error {
	symbol = normalize(symbol)
	r.mu.Lock()
	var targets []*flow.MutableState[*model.MarketData]
	for key, st := range r.cache {
		if key.symbol != symbol {
			continue
		}
		if interval != nil && key.interval != *interval {
			continue
		}
		targets = append(targets, st)
	}
	r.mu.Unlock()

	for _, st := range targets {
		st.Set(nil)
	}
	return nil
}

func (r *Repository) AvailableSymbols(ctx context.Context) ([]string, error) {
	if len(r.symbols) > 0 {
		return append([]string(nil), r.symbols...), nil
	}
	if r.remote == nil {
		return []string{}, nil
	}
	symbols, err := r.remote.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return symbols, nil
}

func (r *Repository) IsSymbolAvailable(ctx context.Context, symbol string) (bool, error) {
	symbols, err := r.AvailableSymbols(ctx)
	if err != nil {
		return false, err
	}
	symbol = normalize(symbol)
	for _, s := range symbols {
		if normalize(s) == symbol {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) SupportedIntervals() []model.TimeInterval { return model.Intervals() }

func (r *Repository) LastUpdateTime(_ context.Context, symbol string, interval model.TimeInterval) (*time.Time, error) {
	m := r.entry(symbol, interval).Value()
	if m == nil {
		return nil, nil
	}
	t := m.LastUpdated
	return &t, nil
}

func (r *Repository) NeedsUpdate(_ context.Context, symbol string, interval model.TimeInterval, maxAge time.Duration) (bool, error) {
	if maxAge <= 0 {
		maxAge = repository.DefaultMaxAge
	}
	m := r.entry(symbol, interval).Value()
	if m == nil {
		return true, nil
	}
	return m.NeedsUpdate(maxAge, r.now()), nil
}
