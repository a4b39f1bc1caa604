// Package store holds what both strategy repositories share: the live query
// views over the in-memory collection and the sample strategies.
package store

import (
	"algocrafter/internal/domain/model"
	"algocrafter/internal/flow"
)

// Views derives the repository queries from a single collection state.
type Views struct {
	state *flow.MutableState[[]model.Strategy]
}

func NewViews(state *flow.MutableState[[]model.Strategy]) Views {
	return Views{state: state}
}

func (v Views) All() flow.Observable[[]model.Strategy] {
	return v.filter(func(model.Strategy) bool { return true })
}

func (v Views) Active() flow.Observable[[]model.Strategy] {
	return v.filter(func(s model.Strategy) bool { return s.IsActive })
}

func (v Views) ByType(t model.StrategyType) flow.Observable[[]model.Strategy] {
	return v.filter(func(s model.Strategy) bool { return s.Type == t })
}

func (v Views) Search(query string) flow.Observable[[]model.Strategy] {
	return v.filter(func(s model.Strategy) bool { return s.Matches(query) })
}

func (v Views) WithTags(tags []string) flow.Observable[[]model.Strategy] {
	tags = append([]string(nil), tags...)
	return v.filter(func(s model.Strategy) bool { return s.HasAnyTag(tags) })
}

// Find returns a copy of the strategy with id, or nil.
func (v Views) Find(id string) *model.Strategy {
	for _, s := range v.state.Value() {
		if s.ID == id {
			c := s.Clone()
			return &c
		}
	}
	return nil
}

func (v Views) Count() int { return len(v.state.Value()) }

func (v Views) ActiveCount() int {
	n := 0
	for _, s := range v.state.Value() {
		if s.IsActive {
			n++
		}
	}
	return n
}

func (v Views) filter(keep func(model.Strategy) bool) flow.Observable[[]model.Strategy] {
	return flow.Map[[]model.Strategy, []model.Strategy](v.state, func(all []model.Strategy) []model.Strategy {
		return Filter(all, keep)
	})
}

// Filter returns copies of the strategies matching keep, in order. The
// result is never nil.
func Filter(all []model.Strategy, keep func(model.Strategy) bool) []model.Strategy {
	out := make([]model.Strategy, 0, len(all))
	for _, s := range all {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Upsert replaces the strategy with the same id or appends s.
func Upsert(all []model.Strategy, s model.Strategy) []model.Strategy {
	out := make([]model.Strategy, 0, len(all)+1)
	replaced := false
	for _, cur := range all {
		if cur.ID == s.ID {
			out = append(out, s)
			replaced = true
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, s)
	}
	return out
}

// Remove drops the strategy with id and reports whether it was present.
func Remove(all []model.Strategy, id string) ([]model.Strategy, bool) {
	out := make([]model.Strategy, 0, len(all))
	found := false
	for _, cur := range all {
		if cur.ID == id {
			found = true
			continue
		}
		out = append(out, cur)
	}
	return out, found
}
