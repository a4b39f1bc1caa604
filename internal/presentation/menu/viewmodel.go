// Package menu is the main menu screen.
package menu

import (
	"context"

	"algocrafter/internal/flow"
	"algocrafter/internal/presentation/navigation"
	"algocrafter/internal/presentation/screen"
)

type State struct {
	IsLoading bool
}

type Event interface{ isMenuEvent() }

type (
	NavigateToAIBuilder       struct{}
	NavigateToCreateStrategy  struct{}
	NavigateToStrategies      struct{}
	NavigateToBacktestResults struct{}
	NavigateToMarketData      struct{}
	NavigateToSettings        struct{}
	NavigateToLegal           struct{}
	ShowMessage               struct{ Message string }
)

func (NavigateToAIBuilder) isMenuEvent()       {}
func (NavigateToCreateStrategy) isMenuEvent()  {}
func (NavigateToStrategies) isMenuEvent()      {}
func (NavigateToBacktestResults) isMenuEvent() {}
func (NavigateToMarketData) isMenuEvent()      {}
func (NavigateToSettings) isMenuEvent()        {}
func (NavigateToLegal) isMenuEvent()           {}
func (ShowMessage) isMenuEvent()               {}

type Effect interface{ isMenuEffect() }

type (
	MessageEffect  struct{ Message string }
	NavigateEffect struct{ Destination navigation.Destination }
)

func (MessageEffect) isMenuEffect()  {}
func (NavigateEffect) isMenuEffect() {}

type ViewModel struct {
	*screen.Base[State, Effect]
	state *flow.SharedState[State]
}

func New(ctx context.Context, opts screen.Options) *ViewModel {
	vm := &ViewModel{Base: screen.NewBase[State, Effect](ctx, "menu", State{}, opts)}
	vm.state = vm.ShareLocal()
	return vm
}

func (vm *ViewModel) State() flow.Observable[State] { return vm.state }

func (vm *ViewModel) HandleEvent(event Event) {
	switch e := event.(type) {
	case NavigateToAIBuilder:
		vm.Emit(MessageEffect{Message: "AI Strategy Builder coming soon"})
	case NavigateToCreateStrategy:
		vm.Emit(MessageEffect{Message: "Create Strategy coming soon"})
	case NavigateToStrategies:
		vm.Emit(NavigateEffect{Destination: navigation.Strategies})
	case NavigateToBacktestResults:
		vm.Emit(MessageEffect{Message: "Backtest Results coming soon"})
	case NavigateToMarketData:
		vm.Emit(NavigateEffect{Destination: navigation.MarketData})
	case NavigateToSettings:
		vm.Emit(MessageEffect{Message: "Settings coming soon"})
	case NavigateToLegal:
		vm.Emit(NavigateEffect{Destination: navigation.LegalScreens})
	case ShowMessage:
		vm.Emit(MessageEffect{Message: e.Message})
	}
}
