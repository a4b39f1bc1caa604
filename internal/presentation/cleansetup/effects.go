package cleansetup

import (
	"context"
	"time"

	"algocrafter/internal/flow"
	"algocrafter/internal/presentation/screen"
)

// DefaultLoadDelay simulates a slow backend before every load.
const DefaultLoadDelay = 2 * time.Second

type EffectsState struct {
	IsLoading bool
	Items     []Item
}

type EffectsEvent interface{ isEffectsEvent() }

func (Refresh) isEffectsEvent()         {}
func (ToggleFavourite) isEffectsEvent() {}
func (NavigateBack) isEffectsEvent()    {}
func (NavigateToHome) isEffectsEvent()  {}

type Effect interface{ isCleanSetupEffect() }

type (
	MessageEffect        struct{ Message string }
	NavigateToHomeEffect struct{}
	NavigateBackEffect   struct{}
)

func (MessageEffect) isCleanSetupEffect()        {}
func (NavigateToHomeEffect) isCleanSetupEffect() {}
func (NavigateBackEffect) isCleanSetupEffect()   {}

type EffectsViewModel struct {
	*screen.Base[EffectsState, Effect]
	load  Loader
	delay time.Duration
	loads flow.Sequence
	state *flow.SharedState[EffectsState]
}

// NewEffects builds the screen. A nil loader means DefaultItems and a
// negative delay means DefaultLoadDelay.
func NewEffects(ctx context.Context, load Loader, delay time.Duration, opts screen.Options) *EffectsViewModel {
	if load == nil {
		load = DefaultItems
	}
	if delay < 0 {
		delay = DefaultLoadDelay
	}
	vm := &EffectsViewModel{
		Base:  screen.NewBase[EffectsState, Effect](ctx, "clean_setup_effects", EffectsState{}, opts),
		load:  load,
		delay: delay,
	}
	vm.state = vm.Share(EffectsState{}, func(ctx context.Context, emit func(EffectsState)) error {
		vm.refresh()
		return flow.Collect(ctx, vm.Local(), emit)
	})
	return vm
}

func (vm *EffectsViewModel) State() flow.Observable[EffectsState] { return vm.state }

func (vm *EffectsViewModel) HandleEvent(event EffectsEvent) {
	switch e := event.(type) {
	case Refresh:
		vm.refresh()
	case ToggleFavourite:
		vm.Local().Update(func(s EffectsState) EffectsState {
			s.Items = toggled(s.Items, e.Item.Name)
			return s
		})
		vm.Emit(MessageEffect{Message: favouriteMessage(e.Item)})
	case NavigateBack:
		vm.Emit(NavigateBackEffect{})
	case NavigateToHome:
		vm.Emit(NavigateToHomeEffect{})
	}
}

// refresh supersedes any refresh still in flight. The token is taken and
// checked under the state lock, so a superseded load never writes.
func (vm *EffectsViewModel) refresh() {
	var token flow.Token
	vm.Local().Update(func(s EffectsState) EffectsState {
		token = vm.loads.Next()
		s.IsLoading = true
		return s
	})
	vm.Launch(func(ctx context.Context) {
		timer := time.NewTimer(vm.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}

		items, err := vm.load(ctx)
		if !vm.loads.IsCurrent(token) {
			return
		}
		applied := false
		vm.Local().Update(func(s EffectsState) EffectsState {
			if !vm.loads.IsCurrent(token) {
				return s
			}
			applied = true
			s.IsLoading = false
			if err == nil {
				s.Items = items
			}
			return s
		})
		if applied && err != nil {
			vm.Log().WithError(err).Warn("load items failed")
			vm.Emit(MessageEffect{Message: "Error loading data: " + err.Error()})
		}
	})
}
