// Package memory is the in-process strategy repository.
package memory

import (
	"context"
	"time"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/domain/repository"
	"algocrafter/internal/flow"
	"algocrafter/internal/store"
	"algocrafter/logger"
)

type Option func(*Repository)

// WithClock sets the time source used by Activate and Deactivate.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithStrategies replaces the initial collection.
func WithStrategies(strategies []model.Strategy) Option {
	return func(r *Repository) { r.initial = strategies }
}

// WithoutSamples starts empty.
func WithoutSamples() Option {
	return WithStrategies([]model.Strategy{})
}

// Repository keeps strategies in a MutableState; every mutation is one
// atomic Update so concurrent writers never lose each other's changes.
type Repository struct {
	state   *flow.MutableState[[]model.Strategy]
	views   store.Views
	now     func() time.Time
	initial []model.Strategy
	log     *logger.Entry
}

var _ repository.StrategyRepository = (*Repository)(nil)

func New(opts ...Option) *Repository {
	r := &Repository{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.initial == nil {
		r.initial = store.SampleStrategies(r.now())
	}
	r.state = flow.NewMutableState(store.Filter(r.initial, func(model.Strategy) bool { return true }))
	r.views = store.NewViews(r.state)
	r.log = logger.GetLogger().WithComponent("strategy_memory_store")
	r.log.WithFields(logger.Fields{"strategies": len(r.initial)}).Debug("memory strategy store ready")
	return r
}

func (r *Repository) Strategies() flow.Observable[[]model.Strategy] { return r.views.All() }

func (r *Repository) ActiveStrategies() flow.Observable[[]model.Strategy] { return r.views.Active() }

func (r *Repository) StrategiesByType(t model.StrategyType) flow.Observable[[]model.Strategy] {
	return r.views.ByType(t)
}

func (r *Repository) Search(query string) flow.Observable[[]model.Strategy] {
	return r.views.Search(query)
}

func (r *Repository) WithTags(tags []string) flow.Observable[[]model.Strategy] {
	return r.views.WithTags(tags)
}

func (r *Repository) StrategyByID(_ context.Context, id string) (*model.Strategy, error) {
	return r.views.Find(id), nil
}

func (r *Repository) Save(_ context.Context, s model.Strategy) (model.Strategy, error) {
	stored := s.Clone()
	r.state.Update(func(all []model.Strategy) []model.Strategy {
		return store.Upsert(all, stored)
	})
	return stored.Clone(), nil
}

func (r *Repository) Delete(_ context.Context, id string) (bool, error) {
	_, found := r.state.TryUpdate(func(all []model.Strategy) ([]model.Strategy, bool) {
		return store.Remove(all, id)
	})
	return found, nil
}

func (r *Repository) Activate(_ context.Context, id string) (bool, error) {
	return r.setActive(id, true), nil
}

func (r *Repository) Deactivate(_ context.Context, id string) (bool, error) {
	return r.setActive(id, false), nil
}

func (r *Repository) setActive(id string, active bool) bool {
	now := r.now()
	_, found := r.state.TryUpdate(func(all []model.Strategy) ([]model.Strategy, bool) {
		next := make([]model.Strategy, len(all))
		copy(next, all)
		found := false
		for i, s := range next {
			if s.ID != id {
				continue
			}
			found = true
			if active {
				next[i] = s.Activate(now)
			} else {
				next[i] = s.Deactivate(now)
			}
		}
		return next, found
	})
	return found
}

func (r *Repository) Count(context.Context) (int, error) { return r.views.Count(), nil }

func (r *Repository) ActiveCount(context.Context) (int, error) { return r.views.ActiveCount(), nil }
