// Package home is the entry screen of the clean setup demo. Navigation is
// carried in state and acknowledged with NavigationHandled.
package home

import (
	"context"

	"algocrafter/internal/flow"
	"algocrafter/internal/presentation/screen"
)

type NavTarget int

const (
	NavNone NavTarget = iota
	NavBack
	NavCleanSetupNoEffects
	NavCleanSetupWithEffects
)

type State struct {
	IsLoading       bool
	SnackbarMessage string
	NavTarget       NavTarget
}

type Event interface{ isHomeEvent() }

type (
	NavigateBack                    struct{}
	NavigateToCleanSetupNoEffects   struct{}
	NavigateToCleanSetupWithEffects struct{}
	NavigationHandled               struct{}
)

func (NavigateBack) isHomeEvent()                    {}
func (NavigateToCleanSetupNoEffects) isHomeEvent()   {}
func (NavigateToCleanSetupWithEffects) isHomeEvent() {}
func (NavigationHandled) isHomeEvent()               {}

type ViewModel struct {
	*screen.Base[State, screen.NoEffect]
	state *flow.SharedState[State]
}

func New(ctx context.Context, opts screen.Options) *ViewModel {
	vm := &ViewModel{Base: screen.NewBase[State, screen.NoEffect](ctx, "home", State{}, opts)}
	vm.state = vm.ShareLocal()
	return vm
}

func (vm *ViewModel) State() flow.Observable[State] { return vm.state }

func (vm *ViewModel) HandleEvent(event Event) {
	var target NavTarget
	switch event.(type) {
	case NavigateBack:
		target = NavBack
	case NavigateToCleanSetupNoEffects:
		target = NavCleanSetupNoEffects
	case NavigateToCleanSetupWithEffects:
		target = NavCleanSetupWithEffects
	case NavigationHandled:
		target = NavNone
	default:
		return
	}
	vm.Local().Update(func(s State) State {
		s.NavTarget = target
		return s
	})
}
