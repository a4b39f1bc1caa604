// Package app is the composition root. It builds every repository, use case
// and screen from the configuration by plain constructor injection.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"algocrafter/config"
	"algocrafter/internal/domain/model"
	"algocrafter/internal/domain/repository"
	"algocrafter/internal/marketdata"
	"algocrafter/internal/marketdata/binance"
	"algocrafter/internal/marketdata/sample"
	"algocrafter/internal/metrics"
	"algocrafter/internal/presentation/cleansetup"
	"algocrafter/internal/presentation/home"
	"algocrafter/internal/presentation/legal"
	mdscreen "algocrafter/internal/presentation/marketdata"
	"algocrafter/internal/presentation/menu"
	"algocrafter/internal/presentation/screen"
	"algocrafter/internal/presentation/strategies"
	"algocrafter/internal/scheduler"
	"algocrafter/internal/status"
	"algocrafter/internal/store/memory"
	"algocrafter/internal/store/sqlite"
	"algocrafter/internal/usecase"
	"algocrafter/logger"
)

const component = "app"

// Container owns the long lived objects of one process.
type Container struct {
	Config *config.Config
	Log    *logger.Log

	Strategies repository.StrategyRepository
	Market     *marketdata.Repository

	GetStrategies   *usecase.GetStrategies
	GetStrategyByID *usecase.GetStrategyByID
	SaveStrategy    *usecase.SaveStrategy
	DeleteStrategy  *usecase.DeleteStrategy

	GetMarketData     *usecase.GetMarketData
	GetCandleData     *usecase.GetCandleData
	RefreshMarketData *usecase.RefreshMarketData

	Watchlist []scheduler.Entry
	Scheduler *scheduler.Scheduler

	now     usecase.Clock
	closers []func() error
}

// Option overrides a collaborator, mostly for tests.
type Option func(*Container)

// WithClock replaces time.Now everywhere the container injects a clock.
func WithClock(now usecase.Clock) Option {
	return func(c *Container) { c.now = now }
}

// New wires the process. The returned container must be closed.
func New(ctx context.Context, cfg *config.Config, log *logger.Log, opts ...Option) (*Container, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	c := &Container{Config: cfg, Log: log, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	metrics.Configure(cfg.Metrics)

	if err := c.openStrategies(ctx); err != nil {
		return nil, err
	}
	c.Market = c.openMarketData()

	c.GetStrategies = usecase.NewGetStrategies(c.Strategies)
	c.GetStrategyByID = usecase.NewGetStrategyByID(c.Strategies)
	c.SaveStrategy = usecase.NewSaveStrategy(c.Strategies, c.now, usecase.NewUUID)
	c.DeleteStrategy = usecase.NewDeleteStrategy(c.Strategies)

	c.GetMarketData = usecase.NewGetMarketData(c.Market, c.now)
	c.GetCandleData = usecase.NewGetCandleData(c.Market, c.now)
	c.RefreshMarketData = usecase.NewRefreshMarketData(c.Market, c.now, log)

	entries, err := Watchlist(cfg.MarketData)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Watchlist = entries
	c.Scheduler = scheduler.New(c.RefreshMarketData, entries, cfg.MarketData.MaxAge, log)
	if spec := strings.TrimSpace(cfg.Schedule.RefreshCron); spec != "" {
		if err := c.Scheduler.Register(spec); err != nil {
			c.Close()
			return nil, err
		}
	}

	log.WithComponent(component).WithFields(logger.Fields{
		"storage":     cfg.Storage.Backend,
		"market_data": cfg.MarketData.Source,
		"watchlist":   len(entries),
	}).Info("container ready")
	return c, nil
}

func (c *Container) openStrategies(ctx context.Context) error {
	switch c.Config.Storage.Backend {
	case "sqlite":
		repo, err := sqlite.Open(ctx, sqlite.Options{
			Path:        c.Config.Storage.SQLitePath,
			SeedSamples: c.Config.Storage.SeedSamples,
			Now:         c.now,
		})
		if err != nil {
			return fmt.Errorf("open strategy store: %w", err)
		}
		c.Strategies = repo
		c.closers = append(c.closers, repo.Close)
	default:
		opts := []memory.Option{memory.WithClock(c.now)}
		if !c.Config.Storage.SeedSamples {
			opts = append(opts, memory.WithoutSamples())
		}
		c.Strategies = memory.New(opts...)
	}
	return nil
}

func (c *Container) openMarketData() *marketdata.Repository {
	md := c.Config.MarketData
	opts := marketdata.Options{
		Symbols: md.Symbols,
		Limiter: rate.NewLimiter(rate.Limit(md.RateLimit.RequestsPerSecond), md.RateLimit.BurstSize),
		Now:     c.now,
		Log:     c.Log,
	}
	switch md.Source {
	case "binance":
		opts.Remote = binance.NewKlines(binance.Config{RestURL: md.RestURL, Timeout: md.Timeout})
		opts.Streamer = binance.NewStream(binance.StreamConfig{
			StreamURL:      md.StreamURL,
			ReconnectDelay: md.ReconnectDelay,
			ClosedOnly:     md.ClosedOnly,
		})
	default:
		opts.Remote = sample.NewRemote(md.Symbols)
		opts.Streamer = &sample.Stream{Period: time.Second, Now: c.now}
	}
	return marketdata.NewRepository(opts)
}

// Watchlist turns the configured watchlist into scheduler entries. An empty
// watchlist watches every symbol on the hourly interval.
func Watchlist(md config.MarketDataConfig) ([]scheduler.Entry, error) {
	if len(md.Watchlist) == 0 {
		entries := make([]scheduler.Entry, 0, len(md.Symbols))
		for _, s := range md.Symbols {
			entries = append(entries, scheduler.Entry{Symbol: s, Interval: model.OneHour})
		}
		return entries, nil
	}
	entries := make([]scheduler.Entry, 0, len(md.Watchlist))
	for _, w := range md.Watchlist {
		interval, err := model.ParseTimeInterval(strings.TrimSpace(w.Interval))
		if err != nil {
			return nil, fmt.Errorf("watchlist %s: %w", w.Symbol, err)
		}
		entries = append(entries, scheduler.Entry{Symbol: strings.TrimSpace(w.Symbol), Interval: interval})
	}
	return entries, nil
}

// ScreenOptions are the view model options shared by every screen.
func (c *Container) ScreenOptions() screen.Options {
	return screen.Options{
		StopTimeout:  c.Config.Presentation.StopTimeout,
		EffectBuffer: c.Config.Presentation.EffectBuffer,
		Log:          c.Log,
	}
}

func (c *Container) NewMenu(ctx context.Context) *menu.ViewModel {
	return menu.New(ctx, c.ScreenOptions())
}

func (c *Container) NewLegal(ctx context.Context) *legal.ViewModel {
	return legal.New(ctx, c.ScreenOptions())
}

func (c *Container) NewStrategies(ctx context.Context) *strategies.ViewModel {
	return strategies.New(ctx, strategies.Deps{
		Strategies: c.GetStrategies,
		ByID:       c.GetStrategyByID,
		Save:       c.SaveStrategy,
		Delete:     c.DeleteStrategy,
		Now:        c.now,
	}, c.ScreenOptions())
}

func (c *Container) NewMarketData(ctx context.Context) *mdscreen.ViewModel {
	return mdscreen.New(ctx, mdscreen.Deps{
		Market:  c.GetMarketData,
		Refresh: c.RefreshMarketData,
		MaxAge:  c.Config.MarketData.MaxAge,
	}, c.ScreenOptions())
}

func (c *Container) NewHome(ctx context.Context) *home.ViewModel {
	return home.New(ctx, c.ScreenOptions())
}

func (c *Container) NewCleanSetup(ctx context.Context) *cleansetup.NoEffectsViewModel {
	return cleansetup.NewNoEffects(ctx, nil, c.ScreenOptions())
}

func (c *Container) NewCleanSetupEffects(ctx context.Context) *cleansetup.EffectsViewModel {
	return cleansetup.NewEffects(ctx, nil, c.Config.Presentation.LoadDelay, c.ScreenOptions())
}

// NewStatusServer returns nil when the status API is disabled.
func (c *Container) NewStatusServer() *status.Server {
	return status.NewServer(c.Config.Status, status.Deps{
		Strategies: c.GetStrategies,
		Market:     c.GetMarketData,
		Refresh:    c.RefreshMarketData,
		Watchlist:  c.Watchlist,
		MaxAge:     c.Config.MarketData.MaxAge,
		Runs:       c.Scheduler.Runs,
	}, c.Log)
}

// Close stops the scheduler and releases the stores.
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if len(errs) > 0 {
		c.Log.WithComponent(component).WithError(errors.Join(errs...)).Error("close failed")
	}
	return errors.Join(errs...)
}
