package cleansetup

import (
	"context"

	"algocrafter/internal/flow"
	"algocrafter/internal/presentation/screen"
)

type NavTarget int

const (
	NavNone NavTarget = iota
	NavBack
	NavHome
)

type NoEffectsState struct {
	IsLoading       bool
	SnackbarMessage string
	Items           []Item
	NavTarget       NavTarget
}

type NoEffectsEvent interface{ isNoEffectsEvent() }

type (
	Refresh           struct{}
	ToggleFavourite   struct{ Item Item }
	SnackbarShown     struct{}
	NavigateBack      struct{}
	NavigateToHome    struct{}
	NavigationHandled struct{}
)

func (Refresh) isNoEffectsEvent()           {}
func (ToggleFavourite) isNoEffectsEvent()   {}
func (SnackbarShown) isNoEffectsEvent()     {}
func (NavigateBack) isNoEffectsEvent()      {}
func (NavigateToHome) isNoEffectsEvent()    {}
func (NavigationHandled) isNoEffectsEvent() {}

type NoEffectsViewModel struct {
	*screen.Base[NoEffectsState, screen.NoEffect]
	load  Loader
	state *flow.SharedState[NoEffectsState]
}

// NewNoEffects builds the screen. A nil loader means DefaultItems. Every
// start of the shared state triggers a refresh.
func NewNoEffects(ctx context.Context, load Loader, opts screen.Options) *NoEffectsViewModel {
	if load == nil {
		load = DefaultItems
	}
	vm := &NoEffectsViewModel{
		Base: screen.NewBase[NoEffectsState, screen.NoEffect](ctx, "clean_setup", NoEffectsState{}, opts),
		load: load,
	}
	vm.state = vm.Share(NoEffectsState{}, func(ctx context.Context, emit func(NoEffectsState)) error {
		vm.refresh()
		return flow.Collect(ctx, vm.Local(), emit)
	})
	return vm
}

func (vm *NoEffectsViewModel) State() flow.Observable[NoEffectsState] { return vm.state }

func (vm *NoEffectsViewModel) HandleEvent(event NoEffectsEvent) {
	switch e := event.(type) {
	case Refresh:
		vm.refresh()
	case ToggleFavourite:
		vm.update(func(s *NoEffectsState) {
			s.Items = toggled(s.Items, e.Item.Name)
			s.SnackbarMessage = favouriteMessage(e.Item)
		})
	case SnackbarShown:
		vm.update(func(s *NoEffectsState) { s.SnackbarMessage = "" })
	case NavigateBack:
		vm.update(func(s *NoEffectsState) { s.NavTarget = NavBack })
	case NavigateToHome:
		vm.update(func(s *NoEffectsState) { s.NavTarget = NavHome })
	case NavigationHandled:
		vm.update(func(s *NoEffectsState) { s.NavTarget = NavNone })
	}
}

func (vm *NoEffectsViewModel) refresh() {
	vm.Launch(func(ctx context.Context) {
		vm.update(func(s *NoEffectsState) {
			s.IsLoading = true
			s.SnackbarMessage = ""
		})
		items, err := vm.load(ctx)
		if err != nil {
			vm.Log().WithError(err).Warn("load items failed")
			vm.update(func(s *NoEffectsState) {
				s.IsLoading = false
				s.SnackbarMessage = err.Error()
			})
			return
		}
		vm.update(func(s *NoEffectsState) {
			s.IsLoading = false
			s.SnackbarMessage = ""
			s.Items = items
		})
	})
}

func (vm *NoEffectsViewModel) update(fn func(*NoEffectsState)) {
	vm.Local().Update(func(s NoEffectsState) NoEffectsState {
		fn(&s)
		return s
	})
}
