// Package strategies is the strategy list screen.
package strategies

import (
	"context"
	"fmt"
	"time"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/flow"
	"algocrafter/internal/presentation/screen"
	"algocrafter/internal/usecase"
	"algocrafter/logger"
)

type Event interface{ isStrategiesEvent() }

type (
	Load                      struct{}
	Refresh                   struct{}
	NavigateToStrategyDetail  struct{ StrategyID string }
	NavigateToCreateStrategy  struct{}
	ShowDeleteConfirmation    struct{ StrategyID, StrategyName string }
	ConfirmDelete             struct{}
	DismissDeleteConfirmation struct{}
	ToggleStrategyActive      struct{ StrategyID string }
	Search                    struct{ Query string }
	FilterByType              struct{ Type string }
	ShowActiveOnly            struct{ ActiveOnly bool }
	DismissError              struct{}
	ShowMessage               struct{ Message string }
)

func (Load) isStrategiesEvent()                      {}
func (Refresh) isStrategiesEvent()                   {}
func (NavigateToStrategyDetail) isStrategiesEvent()  {}
func (NavigateToCreateStrategy) isStrategiesEvent()  {}
func (ShowDeleteConfirmation) isStrategiesEvent()    {}
func (ConfirmDelete) isStrategiesEvent()             {}
func (DismissDeleteConfirmation) isStrategiesEvent() {}
func (ToggleStrategyActive) isStrategiesEvent()      {}
func (Search) isStrategiesEvent()                    {}
func (FilterByType) isStrategiesEvent()              {}
func (ShowActiveOnly) isStrategiesEvent()            {}
func (DismissError) isStrategiesEvent()              {}
func (ShowMessage) isStrategiesEvent()               {}

type Effect interface{ isStrategiesEffect() }

type (
	MessageEffect          struct{ Message string }
	NavigateToDetailEffect struct{ StrategyID string }
	NavigateToCreateEffect struct{}
)

func (MessageEffect) isStrategiesEffect()          {}
func (NavigateToDetailEffect) isStrategiesEffect() {}
func (NavigateToCreateEffect) isStrategiesEffect() {}

type Deps struct {
	Strategies *usecase.GetStrategies
	ByID       *usecase.GetStrategyByID
	Save       *usecase.SaveStrategy
	Delete     *usecase.DeleteStrategy
	Now        func() time.Time
}

type ViewModel struct {
	*screen.Base[State, Effect]
	deps  Deps
	state *flow.SharedState[State]
}

func New(ctx context.Context, deps Deps, opts screen.Options) *ViewModel {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	vm := &ViewModel{
		Base: screen.NewBase[State, Effect](ctx, "strategies", State{}, opts),
		deps: deps,
	}
	combined := flow.Combine(deps.Strategies.All(), vm.Local(), func(list []model.Strategy, cur State) State {
		now := deps.Now()
		items := make([]Item, 0, len(list))
		for _, s := range list {
			items = append(items, toItem(s, now))
		}
		cur.IsLoading = false
		cur.Strategies = items
		cur.Error = ""
		return cur
	})
	vm.state = vm.Share(State{IsLoading: true}, combined, flow.WithCatch(func(err error, _ State) State {
		cur := vm.Local().Value()
		cur.IsLoading = false
		cur.Error = "Failed to load strategies: " + err.Error()
		return cur
	}))
	return vm
}

func (vm *ViewModel) State() flow.Observable[State] { return vm.state }

func (vm *ViewModel) HandleEvent(event Event) {
	switch e := event.(type) {
	case Load:
		vm.Local().Update(func(s State) State {
			s.IsLoading = true
			s.Error = ""
			return s
		})
	case Refresh:
		vm.Emit(MessageEffect{Message: "Strategies refreshed"})
	case NavigateToStrategyDetail:
		vm.Emit(MessageEffect{Message: "Navigate to strategy: " + e.StrategyID})
	case NavigateToCreateStrategy:
		vm.Emit(MessageEffect{Message: "Navigate to create strategy"})
	case ShowDeleteConfirmation:
		vm.Local().Update(func(s State) State {
			s.DeleteConfirmation = &DeleteConfirmation{StrategyID: e.StrategyID, StrategyName: e.StrategyName, IsVisible: true}
			return s
		})
	case ConfirmDelete:
		vm.confirmDelete()
	case DismissDeleteConfirmation:
		vm.dismissDeleteConfirmation()
	case ToggleStrategyActive:
		vm.Serial(func(ctx context.Context) { vm.toggle(ctx, e.StrategyID) })
	case Search:
		vm.Local().Update(func(s State) State {
			s.SearchQuery = e.Query
			return s
		})
	case FilterByType:
		vm.Local().Update(func(s State) State {
			s.FilterType = e.Type
			return s
		})
	case ShowActiveOnly:
		vm.Local().Update(func(s State) State {
			s.ShowActiveOnly = e.ActiveOnly
			return s
		})
	case DismissError:
		vm.Local().Update(func(s State) State {
			s.Error = ""
			return s
		})
	case ShowMessage:
		vm.Emit(MessageEffect{Message: e.Message})
	}
}

func (vm *ViewModel) confirmDelete() {
	c := vm.Local().Value().DeleteConfirmation
	if c == nil || !c.IsVisible {
		return
	}
	confirmation := *c
	vm.Serial(func(ctx context.Context) {
		defer vm.dismissDeleteConfirmation()
		deleted, err := vm.deps.Delete.Delete(ctx, confirmation.StrategyID)
		switch {
		case err != nil:
			vm.Log().WithError(err).Warn("delete strategy failed")
			vm.Emit(MessageEffect{Message: "Failed to delete strategy: " + err.Error()})
		case deleted:
			vm.Emit(MessageEffect{Message: fmt.Sprintf("Strategy '%s' deleted successfully", confirmation.StrategyName)})
		default:
			vm.Emit(MessageEffect{Message: "Strategy not found"})
		}
	})
}

func (vm *ViewModel) dismissDeleteConfirmation() {
	vm.Local().Update(func(s State) State {
		s.DeleteConfirmation = nil
		return s
	})
}

func (vm *ViewModel) toggle(ctx context.Context, id string) {
	s, err := vm.deps.ByID.Get(ctx, id)
	if err != nil {
		vm.Emit(MessageEffect{Message: "Failed to toggle strategy: " + err.Error()})
		return
	}
	if s == nil {
		vm.Emit(MessageEffect{Message: "Strategy not found"})
		return
	}

	now := vm.deps.Now()
	updated := s.Activate(now)
	if s.IsActive {
		updated = s.Deactivate(now)
	}
	if _, err := vm.deps.Save.Save(ctx, updated); err != nil {
		vm.Log().WithError(err).WithFields(logger.Fields{"strategy_id": id}).Warn("toggle strategy failed")
		vm.Emit(MessageEffect{Message: "Failed to toggle strategy: " + err.Error()})
		return
	}
	action := "deactivated"
	if updated.IsActive {
		action = "activated"
	}
	vm.Emit(MessageEffect{Message: fmt.Sprintf("Strategy %s successfully", action)})
}
