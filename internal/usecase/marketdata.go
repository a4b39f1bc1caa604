package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/domain/repository"
	"algocrafter/internal/flow"
	"algocrafter/logger"
)

const (
	day = 24 * time.Hour

	MaxHistoryDays       = 365
	MaxLatestCandles     = 1000
	MaxCandleCount       = 500
	MaxCandleRangeDays   = 30
	MaxRefreshDays       = 30
	DefaultRefreshDays   = 7
	MaxRefreshSymbols    = 10
	DefaultCandleCount   = 50
	DefaultAnalysisCount = 20

	// refreshParallelism bounds concurrent remote calls in RefreshMultiple.
	refreshParallelism = 4
)

func requireSymbol(symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return model.Invalidf("symbol cannot be blank")
	}
	return nil
}

// validateHistoryWindow applies the range rules shared by reads and refreshes.
func validateHistoryWindow(symbol string, start, end, now time.Time) error {
	if err := requireSymbol(symbol); err != nil {
		return err
	}
	if !start.Before(end) {
		return model.Invalidf("start time must be before end time")
	}
	if end.After(now) {
		return model.Invalidf("end time cannot be in the future")
	}
	if start.Before(now.Add(-MaxHistoryDays * day)) {
		return model.Invalidf("start time cannot be more than %d days ago", MaxHistoryDays)
	}
	return nil
}

type GetMarketData struct {
	repo repository.MarketDataRepository
	now  Clock
}

func NewGetMarketData(repo repository.MarketDataRepository, now Clock) *GetMarketData {
	return &GetMarketData{repo: repo, now: orNow(now)}
}

func (u *GetMarketData) Get(symbol string, interval model.TimeInterval, start, end time.Time) (flow.Observable[*model.MarketData], error) {
	if err := validateHistoryWindow(symbol, start, end, u.now()); err != nil {
		return nil, err
	}
	return u.repo.MarketData(symbol, interval, start, end), nil
}

// Latest uses repository.DefaultLatestCount when count is zero.
func (u *GetMarketData) Latest(symbol string, interval model.TimeInterval, count int) (flow.Observable[*model.MarketData], error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	if count == 0 {
		count = repository.DefaultLatestCount
	}
	if count < 0 {
		return nil, model.Invalidf("candle count must be positive")
	}
	if count > MaxLatestCandles {
		return nil, model.Invalidf("candle count cannot exceed %d", MaxLatestCandles)
	}
	return u.repo.LatestMarketData(symbol, interval, count), nil
}

func (u *GetMarketData) ForLastDays(symbol string, interval model.TimeInterval, days int) (flow.Observable[*model.MarketData], error) {
	if days <= 0 {
		return nil, model.Invalidf("days must be positive")
	}
	if days > MaxHistoryDays {
		return nil, model.Invalidf("cannot retrieve more than %d days of data", MaxHistoryDays)
	}
	now := u.now()
	start := now.Add(-time.Duration(days) * day)
	if err := validateHistoryWindow(symbol, start, now, now); err != nil {
		return nil, err
	}
	return u.repo.MarketData(symbol, interval, start, now), nil
}

func (u *GetMarketData) Cached(ctx context.Context, symbol string, interval model.TimeInterval) (*model.MarketData, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	return u.repo.Cached(ctx, symbol, interval)
}

func (u *GetMarketData) IsAvailable(ctx context.Context, symbol string) (bool, error) {
	if err := requireSymbol(symbol); err != nil {
		return false, err
	}
	return u.repo.IsSymbolAvailable(ctx, symbol)
}

func (u *GetMarketData) AvailableSymbols(ctx context.Context) ([]string, error) {
	return u.repo.AvailableSymbols(ctx)
}

// SupportedIntervals is the same for every symbol; the argument is only validated.
func (u *GetMarketData) SupportedIntervals(symbol string) ([]model.TimeInterval, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	return u.repo.SupportedIntervals(), nil
}

type GetCandleData struct {
	repo repository.MarketDataRepository
	now  Clock
}

func NewGetCandleData(repo repository.MarketDataRepository, now Clock) *GetCandleData {
	return &GetCandleData{repo: repo, now: orNow(now)}
}

func (u *GetCandleData) RealTime(ctx context.Context, symbol string, interval model.TimeInterval) (<-chan model.Candle, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	return u.repo.RealTimeCandles(ctx, symbol, interval)
}

// Latest emits an empty list until something is cached.
func (u *GetCandleData) Latest(symbol string, interval model.TimeInterval, count int) (flow.Observable[[]model.Candle], error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, model.Invalidf("count must be positive")
	}
	if count > MaxCandleCount {
		return nil, model.Invalidf("count cannot exceed %d", MaxCandleCount)
	}
	return flow.Map(u.repo.LatestMarketData(symbol, interval, count), candlesOf), nil
}

func (u *GetCandleData) InRange(symbol string, interval model.TimeInterval, start, end time.Time) (flow.Observable[[]model.Candle], error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, model.Invalidf("start time must be before end time")
	}
	if end.After(u.now()) {
		return nil, model.Invalidf("end time cannot be in the future")
	}
	if end.After(start.Add(MaxCandleRangeDays * day)) {
		return nil, model.Invalidf("time range cannot exceed %d days", MaxCandleRangeDays)
	}
	return flow.Map(u.repo.MarketData(symbol, interval, start, end), candlesOf), nil
}

// ForAnalysis emits the newest minCount candles, or nothing until that many are available.
func (u *GetCandleData) ForAnalysis(symbol string, interval model.TimeInterval, minCount int) (flow.Observable[[]model.Candle], error) {
	if minCount <= 0 {
		return nil, model.Invalidf("minimum candles required must be positive")
	}
	latest, err := u.Latest(symbol, interval, minCount*2)
	if err != nil {
		return nil, err
	}
	return flow.Map(latest, func(candles []model.Candle) []model.Candle {
		if len(candles) < minCount {
			return []model.Candle{}
		}
		return candles[len(candles)-minCount:]
	}), nil
}

func (u *GetCandleData) Bullish(symbol string, interval model.TimeInterval, count int) (flow.Observable[[]model.Candle], error) {
	return u.filtered(symbol, interval, count, model.Candle.IsBullish)
}

func (u *GetCandleData) Bearish(symbol string, interval model.TimeInterval, count int) (flow.Observable[[]model.Candle], error) {
	return u.filtered(symbol, interval, count, model.Candle.IsBearish)
}

// HighVolume keeps candles whose volume is strictly above the window average.
func (u *GetCandleData) HighVolume(symbol string, interval model.TimeInterval, count int) (flow.Observable[[]model.Candle], error) {
	latest, err := u.Latest(symbol, interval, count)
	if err != nil {
		return nil, err
	}
	return flow.Map(latest, func(candles []model.Candle) []model.Candle {
		out := []model.Candle{}
		if len(candles) == 0 {
			return out
		}
		total := decimal.Zero
		for _, c := range candles {
			total = total.Add(c.Volume)
		}
		avg := total.Div(decimal.NewFromInt(int64(len(candles))))
		for _, c := range candles {
			if c.Volume.GreaterThan(avg) {
				out = append(out, c)
			}
		}
		return out
	}), nil
}

func (u *GetCandleData) filtered(symbol string, interval model.TimeInterval, count int, keep func(model.Candle) bool) (flow.Observable[[]model.Candle], error) {
	latest, err := u.Latest(symbol, interval, count)
	if err != nil {
		return nil, err
	}
	return flow.Map(latest, func(candles []model.Candle) []model.Candle {
		out := []model.Candle{}
		for _, c := range candles {
			if keep(c) {
				out = append(out, c)
			}
		}
		return out
	}), nil
}

func candlesOf(md *model.MarketData) []model.Candle {
	if md == nil {
		return []model.Candle{}
	}
	return md.Candles
}

type RefreshMarketData struct {
	repo repository.MarketDataRepository
	now  Clock
	log  *logger.Log
}

func NewRefreshMarketData(repo repository.MarketDataRepository, now Clock, log *logger.Log) *RefreshMarketData {
	if log == nil {
		log = logger.GetLogger()
	}
	return &RefreshMarketData{repo: repo, now: orNow(now), log: log}
}

// Refresh fetches the window and caches it. A nil result means the remote
// had nothing for the window and the cache is left alone.
func (u *RefreshMarketData) Refresh(ctx context.Context, symbol string, interval model.TimeInterval, start, end time.Time) (*model.MarketData, error) {
	if err := validateHistoryWindow(symbol, start, end, u.now()); err != nil {
		return nil, err
	}
	data, err := u.repo.Refresh(ctx, symbol, interval, start, end)
	if err != nil {
		return nil, fmt.Errorf("refresh %s %s: %w", symbol, interval, err)
	}
	if data == nil {
		return nil, nil
	}
	if err := u.repo.Cache(ctx, *data); err != nil {
		return nil, fmt.Errorf("cache %s %s: %w", symbol, interval, err)
	}
	return data, nil
}

// RefreshLatest refreshes the trailing days; zero means DefaultRefreshDays.
func (u *RefreshMarketData) RefreshLatest(ctx context.Context, symbol string, interval model.TimeInterval, days int) (*model.MarketData, error) {
	if days == 0 {
		days = DefaultRefreshDays
	}
	if days < 0 {
		return nil, model.Invalidf("days must be positive")
	}
	if days > MaxRefreshDays {
		return nil, model.Invalidf("cannot refresh more than %d days at once", MaxRefreshDays)
	}
	end := u.now()
	return u.Refresh(ctx, symbol, interval, end.Add(-time.Duration(days)*day), end)
}

// RefreshIfStale returns the cached window when it is still fresh.
func (u *RefreshMarketData) RefreshIfStale(ctx context.Context, symbol string, interval model.TimeInterval, maxAge time.Duration) (*model.MarketData, error) {
	if maxAge <= 0 {
		return nil, model.Invalidf("max age must be positive")
	}
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	stale, err := u.repo.NeedsUpdate(ctx, symbol, interval, maxAge)
	if err != nil {
		return nil, err
	}
	if stale {
		return u.RefreshLatest(ctx, symbol, interval, DefaultRefreshDays)
	}
	return u.repo.Cached(ctx, symbol, interval)
}

func (u *RefreshMarketData) ForceRefresh(ctx context.Context, symbol string, interval model.TimeInterval) (*model.MarketData, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	if err := u.repo.ClearCache(ctx, symbol, &interval); err != nil {
		return nil, fmt.Errorf("clear cache: %w", err)
	}
	return u.RefreshLatest(ctx, symbol, interval, DefaultRefreshDays)
}

// RefreshMultiple refreshes each symbol independently. A failed symbol maps
// to nil and does not fail the batch.
func (u *RefreshMarketData) RefreshMultiple(ctx context.Context, symbols []string, interval model.TimeInterval, days int) (map[string]*model.MarketData, error) {
	if len(symbols) == 0 {
		return nil, model.Invalidf("symbols list cannot be empty")
	}
	if len(symbols) > MaxRefreshSymbols {
		return nil, model.Invalidf("cannot refresh more than %d symbols at once", MaxRefreshSymbols)
	}
	for _, s := range symbols {
		if strings.TrimSpace(s) == "" {
			return nil, model.Invalidf("all symbols must be non-blank")
		}
	}

	var (
		mu      sync.Mutex
		results = make(map[string]*model.MarketData, len(symbols))
	)
	log := u.log.WithComponent("refresh")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshParallelism)
	for _, symbol := range symbols {
		g.Go(func() error {
			data, err := u.RefreshLatest(gctx, symbol, interval, days)
			if err != nil {
				log.WithError(err).WithFields(logger.Fields{"symbol": symbol}).Warn("symbol refresh failed")
				data = nil
			}
			mu.Lock()
			results[symbol] = data
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (u *RefreshMarketData) LastUpdateTime(ctx context.Context, symbol string, interval model.TimeInterval) (*time.Time, error) {
	if err := requireSymbol(symbol); err != nil {
		return nil, err
	}
	return u.repo.LastUpdateTime(ctx, symbol, interval)
}

func (u *RefreshMarketData) NeedsUpdate(ctx context.Context, symbol string, interval model.TimeInterval, maxAge time.Duration) (bool, error) {
	if err := requireSymbol(symbol); err != nil {
		return false, err
	}
	if maxAge <= 0 {
		return false, model.Invalidf("max age must be positive")
	}
	return u.repo.NeedsUpdate(ctx, symbol, interval, maxAge)
}
