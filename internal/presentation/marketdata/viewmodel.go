// Package marketdata is the market data screen: pick a symbol and interval
// and see a summary of the cached candles, refreshed when stale.
package marketdata

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/domain/repository"
	"algocrafter/internal/flow"
	"algocrafter/internal/presentation/screen"
	"algocrafter/internal/usecase"
	"algocrafter/logger"
)

// Summary condenses one market data window.
type Summary struct {
	Candles   int
	From, To  time.Time
	LastClose decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Volume    decimal.Decimal

	// Change is the percentage move from the first open to the last close.
	Change decimal.Decimal
}

func summarize(md *model.MarketData) *Summary {
	if md == nil || md.IsEmpty() {
		return nil
	}
	first, _ := md.Earliest()
	last, _ := md.Latest()
	hi, _ := md.HighestPrice()
	lo, _ := md.LowestPrice()
	change, _ := md.OverallPercentageChange()
	return &Summary{
		Candles:   md.CandleCount(),
		From:      first.Timestamp,
		To:        last.Timestamp,
		LastClose: last.Close,
		High:      hi,
		Low:       lo,
		Volume:    md.TotalVolume(),
		Change:    change.Round(2),
	}
}

type State struct {
	Symbols     []string
	Symbol      string
	Interval    model.TimeInterval
	IsLoading   bool
	Summary     *Summary
	LastUpdated *time.Time
	Error       string
}

type Event interface{ isMarketDataEvent() }

type (
	LoadSymbols    struct{}
	SelectSymbol   struct{ Symbol string }
	SelectInterval struct{ Interval model.TimeInterval }
	Refresh        struct{}
	ForceRefresh   struct{}
	DismissError   struct{}
	NavigateBack   struct{}
)

func (LoadSymbols) isMarketDataEvent()    {}
func (SelectSymbol) isMarketDataEvent()   {}
func (SelectInterval) isMarketDataEvent() {}
func (Refresh) isMarketDataEvent()        {}
func (ForceRefresh) isMarketDataEvent()   {}
func (DismissError) isMarketDataEvent()   {}
func (NavigateBack) isMarketDataEvent()   {}

type Effect interface{ isMarketDataEffect() }

type (
	MessageEffect      struct{ Message string }
	NavigateBackEffect struct{}
)

func (MessageEffect) isMarketDataEffect()      {}
func (NavigateBackEffect) isMarketDataEffect() {}

type Deps struct {
	Market  *usecase.GetMarketData
	Refresh *usecase.RefreshMarketData

	// MaxAge is the staleness threshold for Refresh; zero means
	// repository.DefaultMaxAge.
	MaxAge   time.Duration
	Interval model.TimeInterval
}

type ViewModel struct {
	*screen.Base[State, Effect]
	deps  Deps
	loads flow.Sequence
	state *flow.SharedState[State]
}

func New(ctx context.Context, deps Deps, opts screen.Options) *ViewModel {
	if deps.MaxAge <= 0 {
		deps.MaxAge = repository.DefaultMaxAge
	}
	if !deps.Interval.Valid() {
		deps.Interval = model.OneHour
	}
	vm := &ViewModel{
		Base: screen.NewBase[State, Effect](ctx, "market_data_screen", State{Interval: deps.Interval}, opts),
		deps: deps,
	}
	vm.state = vm.Share(vm.Local().Value(), func(ctx context.Context, emit func(State)) error {
		vm.HandleEvent(LoadSymbols{})
		return flow.Collect(ctx, vm.Local(), emit)
	})
	return vm
}

func (vm *ViewModel) State() flow.Observable[State] { return vm.state }

func (vm *ViewModel) HandleEvent(event Event) {
	switch e := event.(type) {
	case LoadSymbols:
		vm.Launch(vm.loadSymbols)
	case SelectSymbol:
		vm.Local().Update(func(s State) State {
			s.Symbol = e.Symbol
			s.Summary, s.LastUpdated = nil, nil
			return s
		})
		vm.load(false)
	case SelectInterval:
		vm.Local().Update(func(s State) State {
			s.Interval = e.Interval
			s.Summary, s.LastUpdated = nil, nil
			return s
		})
		vm.load(false)
	case Refresh:
		vm.load(false)
	case ForceRefresh:
		vm.load(true)
	case DismissError:
		vm.Local().Update(func(s State) State {
			s.Error = ""
			return s
		})
	case NavigateBack:
		vm.Emit(NavigateBackEffect{})
	}
}

func (vm *ViewModel) loadSymbols(ctx context.Context) {
	symbols, err := vm.deps.Market.AvailableSymbols(ctx)
	if err != nil {
		vm.fail("Failed to load symbols: " + err.Error())
		return
	}
	var pick string
	vm.Local().Update(func(s State) State {
		s.Symbols = symbols
		if s.Symbol == "" && len(symbols) > 0 {
			s.Symbol = symbols[0]
			pick = s.Symbol
		}
		return s
	})
	if pick != "" {
		vm.load(false)
	}
}

// load refreshes the selected window. Only the newest load may write its
// result; the token is taken and checked under the state lock.
func (vm *ViewModel) load(force bool) {
	var (
		token  flow.Token
		symbol string
	)
	cur := vm.Local().Update(func(s State) State {
		if s.Symbol == "" {
			return s
		}
		token = vm.loads.Next()
		symbol = s.Symbol
		s.IsLoading = true
		return s
	})
	if symbol == "" {
		return
	}
	interval := cur.Interval
	vm.Launch(func(ctx context.Context) {
		var (
			data *model.MarketData
			err  error
		)
		if force {
			data, err = vm.deps.Refresh.ForceRefresh(ctx, symbol, interval)
		} else {
			data, err = vm.deps.Refresh.RefreshIfStale(ctx, symbol, interval, vm.deps.MaxAge)
		}
		var msg string
		if err != nil {
			msg = "Failed to refresh market data: " + err.Error()
		}
		var updated *time.Time
		if data != nil {
			t := data.LastUpdated
			updated = &t
		}

		applied := false
		vm.Local().Update(func(s State) State {
			if !vm.loads.IsCurrent(token) {
				return s
			}
			applied = true
			s.IsLoading = false
			if msg != "" {
				s.Error = msg
				return s
			}
			s.Summary = summarize(data)
			s.LastUpdated = updated
			s.Error = ""
			return s
		})
		switch {
		case !applied:
			vm.Log().WithFields(logger.Fields{"symbol": symbol, "interval": interval.String()}).Debug("stale load dropped")
		case msg != "":
			vm.Log().Warn(msg)
			vm.Emit(MessageEffect{Message: msg})
		case force:
			vm.Emit(MessageEffect{Message: "Market data refreshed"})
		}
	})
}

func (vm *ViewModel) fail(msg string) {
	vm.Log().Warn(msg)
	vm.Local().Update(func(s State) State {
		s.IsLoading = false
		s.Error = msg
		return s
	})
	vm.Emit(MessageEffect{Message: msg})
}
