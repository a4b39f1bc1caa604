package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/marketdata"
	"algocrafter/internal/marketdata/sample"
	"algocrafter/logger"
)

func newMarketRepo(remote marketdata.Remote) *marketdata.Repository {
	return marketdata.NewRepository(marketdata.Options{
		Remote:  remote,
		Symbols: []string{"BTCUSDT", "ETHUSDT"},
		Now:     clock,
		Log:     logger.Discard(),
	})
}

func TestGetMarketDataValidation(t *testing.T) {
	u := NewGetMarketData(newMarketRepo(sample.NewRemote(nil)), clock)

	tests := []struct {
		name       string
		symbol     string
		start, end time.Time
	}{
		{"blank symbol", " ", fixedNow.Add(-time.Hour), fixedNow},
		{"start after end", "BTCUSDT", fixedNow, fixedNow.Add(-time.Hour)},
		{"end in future", "BTCUSDT", fixedNow.Add(-time.Hour), fixedNow.Add(time.Minute)},
		{"too far back", "BTCUSDT", fixedNow.Add(-366 * day), fixedNow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.Get(tt.symbol, model.OneHour, tt.start, tt.end)
			assert.ErrorIs(t, err, model.ErrInvalid)
		})
	}

	_, err := u.Latest("BTCUSDT", model.OneHour, MaxLatestCandles+1)
	assert.ErrorIs(t, err, model.ErrInvalid)
	_, err = u.ForLastDays("BTCUSDT", model.OneHour, MaxHistoryDays+1)
	assert.ErrorIs(t, err, model.ErrInvalid)

	obs, err := u.ForLastDays("BTCUSDT", model.OneHour, 365)
	require.NoError(t, err)
	assert.Nil(t, obs.Value(), "nothing cached yet")
}

func TestRefreshCachesAndFeedsObservables(t *testing.T) {
	ctx := context.Background()
	repo := newMarketRepo(sample.NewRemote([]string{"BTCUSDT"}))
	refresh := NewRefreshMarketData(repo, clock, logger.Discard())
	candles := NewGetCandleData(repo, clock)

	latest, err := candles.Latest("BTCUSDT", model.OneHour, 24)
	require.NoError(t, err)
	assert.Empty(t, latest.Value())

	data, err := refresh.RefreshLatest(ctx, "BTCUSDT", model.OneHour, 0)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, DefaultRefreshDays*24+1, data.CandleCount())

	assert.Len(t, latest.Value(), 24)

	stale, err := refresh.NeedsUpdate(ctx, "BTCUSDT", model.OneHour, time.Minute)
	require.NoError(t, err)
	assert.False(t, stale)

	again, err := refresh.RefreshIfStale(ctx, "BTCUSDT", model.OneHour, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, data.CandleCount(), again.CandleCount())

	last, err := refresh.LastUpdateTime(ctx, "BTCUSDT", model.OneHour)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, fixedNow, *last)
}

func TestRefreshLatestLimits(t *testing.T) {
	refresh := NewRefreshMarketData(newMarketRepo(sample.NewRemote(nil)), clock, logger.Discard())

	_, err := refresh.RefreshLatest(context.Background(), "BTCUSDT", model.OneHour, MaxRefreshDays+1)
	assert.ErrorIs(t, err, model.ErrInvalid)
	_, err = refresh.RefreshIfStale(context.Background(), "BTCUSDT", model.OneHour, 0)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestRefreshMultipleIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	remote := sample.NewRemote(nil)
	remote.Fail = errors.New("exchange down")
	refresh := NewRefreshMarketData(newMarketRepo(remote), clock, logger.Discard())

	got, err := refresh.RefreshMultiple(ctx, []string{"BTCUSDT", "ETHUSDT"}, model.OneHour, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got["BTCUSDT"])
	assert.Nil(t, got["ETHUSDT"])

	_, err = refresh.RefreshMultiple(ctx, nil, model.OneHour, 1)
	assert.ErrorIs(t, err, model.ErrInvalid)
	_, err = refresh.RefreshMultiple(ctx, make([]string, MaxRefreshSymbols+1), model.OneHour, 1)
	assert.ErrorIs(t, err, model.ErrInvalid)
	_, err = refresh.RefreshMultiple(ctx, []string{"BTCUSDT", " "}, model.OneHour, 1)
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestForceRefreshReplacesCache(t *testing.T) {
	ctx := context.Background()
	repo := newMarketRepo(sample.NewRemote(nil))
	require.NoError(t, repo.Cache(ctx, model.MarketData{
		Symbol: "BTCUSDT", Interval: model.OneHour,
		StartTime: fixedNow.Add(-time.Hour), EndTime: fixedNow, LastUpdated: fixedNow.Add(-time.Hour),
	}))

	data, err := NewRefreshMarketData(repo, clock, logger.Discard()).ForceRefresh(ctx, "BTCUSDT", model.OneHour)
	require.NoError(t, err)
	require.NotNil(t, data)

	cached, err := repo.Cached(ctx, "BTCUSDT", model.OneHour)
	require.NoError(t, err)
	assert.Equal(t, data.CandleCount(), cached.CandleCount())
}

func candle(ts time.Time, open, close, volume int64) model.Candle {
	o, c := decimal.NewFromInt(open), decimal.NewFromInt(close)
	return model.Candle{
		Symbol: "BTCUSDT", Timestamp: ts, Interval: model.OneHour,
		Open: o, Close: c, High: decimal.Max(o, c), Low: decimal.Min(o, c),
		Volume: decimal.NewFromInt(volume),
	}
}

func TestCandleFilters(t *testing.T) {
	ctx := context.Background()
	repo := newMarketRepo(sample.NewRemote(nil))
	base := fixedNow.Add(-4 * time.Hour)
	require.NoError(t, repo.Cache(ctx, model.MarketData{
		Symbol: "BTCUSDT", Interval: model.OneHour,
		Candles: []model.Candle{
			candle(base, 10, 12, 100),
			candle(base.Add(time.Hour), 12, 11, 300),
			candle(base.Add(2*time.Hour), 11, 11, 50),
			candle(base.Add(3*time.Hour), 11, 15, 400),
		},
		StartTime: base, EndTime: base.Add(3 * time.Hour), LastUpdated: fixedNow,
	}))
	u := NewGetCandleData(repo, clock)

	bullish, err := u.Bullish("BTCUSDT", model.OneHour, 10)
	require.NoError(t, err)
	assert.Len(t, bullish.Value(), 2)

	bearish, err := u.Bearish("BTCUSDT", model.OneHour, 10)
	require.NoError(t, err)
	assert.Len(t, bearish.Value(), 1)

	high, err := u.HighVolume("BTCUSDT", model.OneHour, 10)
	require.NoError(t, err)
	require.Len(t, high.Value(), 2, "average volume is 212.5")

	analysis, err := u.ForAnalysis("BTCUSDT", model.OneHour, 3)
	require.NoError(t, err)
	got := analysis.Value()
	require.Len(t, got, 3)
	assert.Equal(t, base.Add(time.Hour), got[0].Timestamp)

	tooMany, err := u.ForAnalysis("BTCUSDT", model.OneHour, 5)
	require.NoError(t, err)
	assert.Empty(t, tooMany.Value())

	_, err = u.Latest("BTCUSDT", model.OneHour, MaxCandleCount+1)
	assert.ErrorIs(t, err, model.ErrInvalid)
	_, err = u.InRange("BTCUSDT", model.OneHour, fixedNow.Add(-31*day), fixedNow)
	assert.ErrorIs(t, err, model.ErrInvalid)

	ranged, err := u.InRange("BTCUSDT", model.OneHour, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, ranged.Value(), 2)
}
