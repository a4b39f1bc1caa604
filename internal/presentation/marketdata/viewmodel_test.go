package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/flow"
	"algocrafter/internal/marketdata"
	"algocrafter/internal/marketdata/sample"
	"algocrafter/internal/presentation/screen"
	"algocrafter/internal/usecase"
	"algocrafter/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// gatedRemote holds Klines for one symbol until its gate is closed.
type gatedRemote struct {
	*sample.Remote
	symbol string
	gate   chan struct{}
}

func (g *gatedRemote) Klines(ctx context.Context, symbol string, interval model.TimeInterval, start, end time.Time) ([]model.Candle, error) {
	if symbol == g.symbol {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Remote.Klines(ctx, symbol, interval, start, end)
}

func newVM(t *testing.T, remote marketdata.Remote) *ViewModel {
	t.Helper()
	repo := marketdata.NewRepository(marketdata.Options{
		Remote:  remote,
		Symbols: []string{"BTCUSDT", "ETHUSDT"},
		Now:     clock,
		Log:     logger.Discard(),
	})
	vm := New(context.Background(), Deps{
		Market:  usecase.NewGetMarketData(repo, clock),
		Refresh: usecase.NewRefreshMarketData(repo, clock, logger.Discard()),
	}, screen.Options{StopTimeout: time.Millisecond, Log: logger.Discard()})
	t.Cleanup(vm.Close)
	return vm
}

func await(t *testing.T, obs flow.Observable[State], pred func(State) bool) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := flow.Await(ctx, obs, pred)
	require.NoError(t, err)
	return s
}

func TestSubscribingLoadsSymbolsAndFirstWindow(t *testing.T) {
	vm := newVM(t, sample.NewRemote(nil))

	s := await(t, vm.State(), func(s State) bool { return s.Summary != nil })
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, s.Symbols)
	assert.Equal(t, "BTCUSDT", s.Symbol)
	assert.Equal(t, model.OneHour, s.Interval)
	assert.False(t, s.IsLoading)
	assert.Equal(t, usecase.DefaultRefreshDays*24+1, s.Summary.Candles)
	require.NotNil(t, s.LastUpdated)
	assert.Equal(t, fixedNow, *s.LastUpdated)
	assert.True(t, s.Summary.High.GreaterThanOrEqual(s.Summary.Low))
}

func TestStaleLoadIsDropped(t *testing.T) {
	remote := &gatedRemote{Remote: sample.NewRemote(nil), symbol: "BTCUSDT", gate: make(chan struct{})}
	vm := newVM(t, remote)

	vm.HandleEvent(SelectSymbol{Symbol: "BTCUSDT"})
	vm.HandleEvent(SelectSymbol{Symbol: "ETHUSDT"})

	s := await(t, vm.Local(), func(s State) bool { return s.Summary != nil })
	assert.Equal(t, "ETHUSDT", s.Symbol)

	close(remote.gate)
	vm.Wait()

	final := vm.Local().Value()
	assert.Equal(t, "ETHUSDT", final.Symbol)
	require.NotNil(t, final.Summary)
	assert.False(t, final.IsLoading)
}

func TestRefreshFailureBecomesErrorAndMessage(t *testing.T) {
	remote := sample.NewRemote(nil)
	remote.Fail = errors.New("exchange down")
	vm := newVM(t, remote)

	vm.HandleEvent(SelectSymbol{Symbol: "BTCUSDT"})
	vm.Wait()

	s := vm.Local().Value()
	assert.Contains(t, s.Error, "exchange down")
	assert.False(t, s.IsLoading)

	e, err := vm.Effects().Receive(context.Background())
	require.NoError(t, err)
	assert.Contains(t, e.(MessageEffect).Message, "Failed to refresh market data")

	vm.HandleEvent(DismissError{})
	assert.Empty(t, vm.Local().Value().Error)
}

func TestForceRefreshAnnouncesAndNavigateBack(t *testing.T) {
	vm := newVM(t, sample.NewRemote(nil))

	vm.HandleEvent(SelectSymbol{Symbol: "ETHUSDT"})
	vm.HandleEvent(SelectInterval{Interval: model.FourHours})
	vm.Wait()
	vm.HandleEvent(ForceRefresh{})
	vm.Wait()
	vm.HandleEvent(NavigateBack{})

	ctx := context.Background()
	first, err := vm.Effects().Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, MessageEffect{Message: "Market data refreshed"}, first)
	second, err := vm.Effects().Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, NavigateBackEffect{}, second)

	s := vm.Local().Value()
	assert.Equal(t, model.FourHours, s.Interval)
	require.NotNil(t, s.Summary)
	assert.Equal(t, usecase.DefaultRefreshDays*6, s.Summary.Candles)
}
