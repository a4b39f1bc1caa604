// Package status serves a read-only JSON view of a running process:
// recent metrics and warnings, the strategy catalogue and the freshness of
// the watched market data.
package status

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"algocrafter/config"
	"algocrafter/internal/domain/model"
	"algocrafter/internal/metrics"
	"algocrafter/internal/scheduler"
	"algocrafter/internal/usecase"
	"algocrafter/logger"
)

const component = "status"

type Deps struct {
	Strategies *usecase.GetStrategies
	Market     *usecase.GetMarketData
	Refresh    *usecase.RefreshMarketData
	Watchlist  []scheduler.Entry
	MaxAge     time.Duration

	// Runs reports completed scheduler passes. Optional.
	Runs func() int
}

type Server struct {
	cfg           config.StatusConfig
	deps          Deps
	log           *logger.Log
	metricStore   *metricStore
	logStore      *logStore
	metricHandler metrics.MetricHandlerID
	httpServer    *http.Server
	started       time.Time
}

// NewServer returns nil when the status API is disabled.
func NewServer(cfg config.StatusConfig, deps Deps, log *logger.Log) *Server {
	if !cfg.Enabled {
		return nil
	}
	if log == nil {
		log = logger.GetLogger()
	}
	cfg.Address = normalizeAddress(cfg.Address)

	ms := newMetricStore(cfg.History)
	ls := newLogStore(cfg.History)
	log.AddHook(ls)

	return &Server{
		cfg:           cfg,
		deps:          deps,
		log:           log,
		metricStore:   ms,
		logStore:      ls,
		metricHandler: metrics.RegisterMetricHandler(ms.handle),
		started:       time.Now(),
	}
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}
	defer s.cleanup()

	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.WithComponent(component).WithFields(logger.Fields{"address": s.cfg.Address}).Info("status api listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) cleanup() {
	metrics.UnregisterMetricHandler(s.metricHandler)
	s.logStore.close()
}

func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.health)
	api := router.Group("/api")
	api.GET("/metrics", s.listMetrics)
	api.GET("/logs", s.listLogs)
	api.GET("/strategies", s.listStrategies)
	api.GET("/watchlist", s.listWatchlist)
	api.GET("/market/:symbol", s.marketSummary)
	return router
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok", "uptime": time.Since(s.started).Round(time.Second).String()}
	if s.deps.Runs != nil {
		body["scheduler_runs"] = s.deps.Runs()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) listMetrics(c *gin.Context) {
	snapshot := s.metricStore.snapshot()
	payload := make([]gin.H, 0, len(snapshot))
	for _, m := range snapshot {
		payload = append(payload, gin.H{
			"timestamp": m.Timestamp.Format(time.RFC3339Nano),
			"component": m.Component,
			"name":      m.Name,
			"value":     m.Value,
			"type":      m.Kind,
			"feature":   m.Name.Feature(),
			"fields":    m.Fields,
		})
	}
	c.JSON(http.StatusOK, gin.H{"metrics": payload})
}

func (s *Server) listLogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": s.logStore.snapshot()})
}

func (s *Server) listStrategies(c *gin.Context) {
	list := s.deps.Strategies.SortedByRecentlyModified().Value()
	if c.Query("active") == "true" {
		active := list[:0:0]
		for _, st := range list {
			if st.IsActive {
				active = append(active, st)
			}
		}
		list = active
	}
	c.JSON(http.StatusOK, gin.H{"strategies": list, "count": len(list)})
}

func (s *Server) listWatchlist(c *gin.Context) {
	ctx := c.Request.Context()
	payload := make([]gin.H, 0, len(s.deps.Watchlist))
	for _, e := range s.deps.Watchlist {
		entry := gin.H{"symbol": e.Symbol, "interval": e.Interval.String()}
		if last, err := s.deps.Refresh.LastUpdateTime(ctx, e.Symbol, e.Interval); err == nil && last != nil {
			entry["last_updated"] = last.Format(time.RFC3339)
		}
		stale, err := s.deps.Refresh.NeedsUpdate(ctx, e.Symbol, e.Interval, s.deps.MaxAge)
		if err != nil {
			entry["error"] = err.Error()
		} else {
			entry["stale"] = stale
		}
		payload = append(payload, entry)
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": payload})
}

func (s *Server) marketSummary(c *gin.Context) {
	interval := model.OneHour
	if raw := c.Query("interval"); raw != "" {
		parsed, err := model.ParseTimeInterval(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		interval = parsed
	}

	data, err := s.deps.Market.Cached(c.Request.Context(), c.Param("symbol"), interval)
	switch {
	case errors.Is(err, model.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.log.WithComponent(component).WithError(err).Warn("read cached market data failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	case data == nil || data.IsEmpty():
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached data for " + strings.ToUpper(c.Param("symbol"))})
		return
	}

	last, _ := data.Latest()
	high, _ := data.HighestPrice()
	low, _ := data.LowestPrice()
	change, _ := data.OverallPercentageChange()
	c.JSON(http.StatusOK, gin.H{
		"symbol":       data.Symbol,
		"interval":     data.Interval.String(),
		"candles":      data.CandleCount(),
		"last_close":   last.Close.String(),
		"high":         high.String(),
		"low":          low.String(),
		"volume":       data.TotalVolume().String(),
		"change_pct":   change.Round(2).String(),
		"last_updated": data.LastUpdated.Format(time.RFC3339),
	})
}

// normalizeAddress turns ":9090", "9090" or "localhost" into a host:port pair
// with 8080 as the default port.
func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "0.0.0.0:8080"
	}
	if strings.HasPrefix(addr, ":") {
		return "0.0.0.0" + addr
	}
	if _, err := strconv.Atoi(addr); err == nil {
		return "0.0.0.0:" + addr
	}
	if host, port, err := net.SplitHostPort(addr); err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, port)
	}
	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8080")
	}
	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8080")
	}
	return addr
}
