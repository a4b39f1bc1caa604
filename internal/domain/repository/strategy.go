package repository

import (
	"context"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/flow"
)

// StrategyRepository stores strategies. Query methods return live views that
// re-emit whenever the underlying collection changes. A missing strategy is
// reported as a nil pointer or false, never as an error.
type StrategyRepository interface {
	Strategies() flow.Observable[[]model.Strategy]
	ActiveStrategies() flow.Observable[[]model.Strategy]
	StrategiesByType(t model.StrategyType) flow.Observable[[]model.Strategy]
	Search(query string) flow.Observable[[]model.Strategy]
	WithTags(tags []string) flow.Observable[[]model.Strategy]

	StrategyByID(ctx context.Context, id string) (*model.Strategy, error)
	// Save inserts or replaces s by id and returns what was stored.
	Save(ctx context.Context, s model.Strategy) (model.Strategy, error)
	Delete(ctx context.Context, id string) (bool, error)
	Activate(ctx context.Context, id string) (bool, error)
	Deactivate(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	ActiveCount(ctx context.Context) (int, error)
}
