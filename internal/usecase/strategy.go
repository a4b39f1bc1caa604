package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/domain/repository"
	"algocrafter/internal/flow"
)

// StrategyIDPrefix starts every generated strategy id.
const StrategyIDPrefix = "strategy_"

type GetStrategies struct {
	repo repository.StrategyRepository
}

func NewGetStrategies(repo repository.StrategyRepository) *GetStrategies {
	return &GetStrategies{repo: repo}
}

func (u *GetStrategies) All() flow.Observable[[]model.Strategy] { return u.repo.Strategies() }

func (u *GetStrategies) Active() flow.Observable[[]model.Strategy] { return u.repo.ActiveStrategies() }

// SortedByRecentlyModified orders by UpdatedAt, newest first.
func (u *GetStrategies) SortedByRecentlyModified() flow.Observable[[]model.Strategy] {
	return flow.Map(u.repo.Strategies(), func(list []model.Strategy) []model.Strategy {
		out := append([]model.Strategy(nil), list...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
		return out
	})
}

// ReadyForBacktest keeps the active strategies that carry parameters.
func (u *GetStrategies) ReadyForBacktest() flow.Observable[[]model.Strategy] {
	return flow.Map(u.repo.Strategies(), func(list []model.Strategy) []model.Strategy {
		out := make([]model.Strategy, 0, len(list))
		for _, s := range list {
			if s.IsReadyForBacktest() {
				out = append(out, s)
			}
		}
		return out
	})
}

type GetStrategyByID struct {
	repo repository.StrategyRepository
}

func NewGetStrategyByID(repo repository.StrategyRepository) *GetStrategyByID {
	return &GetStrategyByID{repo: repo}
}

func (u *GetStrategyByID) Get(ctx context.Context, id string) (*model.Strategy, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.Invalidf("strategy id cannot be blank")
	}
	return u.repo.StrategyByID(ctx, id)
}

func (u *GetStrategyByID) GetOrError(ctx context.Context, id string) (model.Strategy, error) {
	s, err := u.Get(ctx, id)
	if err != nil {
		return model.Strategy{}, err
	}
	if s == nil {
		return model.Strategy{}, model.Invalidf("strategy with id '%s' not found", id)
	}
	return *s, nil
}

// Exists reports false for a blank id instead of failing.
func (u *GetStrategyByID) Exists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	s, err := u.repo.StrategyByID(ctx, id)
	return s != nil, err
}

func (u *GetStrategyByID) GetActive(ctx context.Context, id string) (*model.Strategy, error) {
	s, err := u.Get(ctx, id)
	if err != nil || s == nil || !s.IsActive {
		return nil, err
	}
	return s, nil
}

type SaveStrategy struct {
	repo  repository.StrategyRepository
	now   Clock
	newID IDGenerator
}

func NewSaveStrategy(repo repository.StrategyRepository, now Clock, newID IDGenerator) *SaveStrategy {
	if newID == nil {
		newID = NewUUID
	}
	return &SaveStrategy{repo: repo, now: orNow(now), newID: newID}
}

// Save creates or updates s. A strategy with a blank id, or whose creation
// and update times are equal, is treated as new.
func (u *SaveStrategy) Save(ctx context.Context, s model.Strategy) (model.Strategy, error) {
	if err := validateDraft(s); err != nil {
		return model.Strategy{}, err
	}

	now := u.now()
	var toSave model.Strategy
	if strings.TrimSpace(s.ID) == "" || s.CreatedAt.Equal(s.UpdatedAt) {
		toSave = s.Clone()
		if strings.TrimSpace(toSave.ID) == "" {
			toSave.ID = u.generateID()
		}
		toSave.CreatedAt = now
		toSave.UpdatedAt = now
	} else {
		toSave = s.WithUpdatedTimestamp(now)
	}
	if err := toSave.Validate(); err != nil {
		return model.Strategy{}, err
	}

	saved, err := u.repo.Save(ctx, toSave)
	if err != nil {
		return model.Strategy{}, fmt.Errorf("save strategy: %w", err)
	}
	return saved, nil
}

// CreateNew always assigns a fresh id.
func (u *SaveStrategy) CreateNew(ctx context.Context, s model.Strategy) (model.Strategy, error) {
	now := u.now()
	draft := s.Clone()
	draft.ID = u.generateID()
	draft.CreatedAt = now
	draft.UpdatedAt = now
	return u.Save(ctx, draft)
}

// Update requires s to exist already.
func (u *SaveStrategy) Update(ctx context.Context, s model.Strategy) (model.Strategy, error) {
	if strings.TrimSpace(s.ID) == "" {
		return model.Strategy{}, model.Invalidf("strategy id is required for updates")
	}
	existing, err := u.repo.StrategyByID(ctx, s.ID)
	if err != nil {
		return model.Strategy{}, fmt.Errorf("look up strategy: %w", err)
	}
	if existing == nil {
		return model.Strategy{}, model.Invalidf("strategy with id %s not found", s.ID)
	}
	return u.Save(ctx, s)
}

func (u *SaveStrategy) generateID() string { return StrategyIDPrefix + u.newID() }

func validateDraft(s model.Strategy) error {
	if strings.TrimSpace(s.Name) == "" {
		return model.Invalidf("strategy name cannot be empty or whitespace")
	}
	if strings.TrimSpace(s.Description) == "" {
		return model.Invalidf("strategy description cannot be empty or whitespace")
	}
	for k, v := range s.Parameters {
		if strings.TrimSpace(k) == "" {
			return model.Invalidf("parameter key cannot be blank")
		}
		if v == nil || strings.TrimSpace(fmt.Sprint(v)) == "" {
			return model.Invalidf("parameter value for '%s' cannot be blank", k)
		}
	}
	return nil
}

type DeleteStrategy struct {
	repo repository.StrategyRepository
}

func NewDeleteStrategy(repo repository.StrategyRepository) *DeleteStrategy {
	return &DeleteStrategy{repo: repo}
}

// Delete removes the strategy and reports false when it does not exist.
func (u *DeleteStrategy) Delete(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, model.Invalidf("strategy id cannot be blank")
	}
	existing, err := u.repo.StrategyByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("look up strategy: %w", err)
	}
	if existing == nil {
		return false, nil
	}
	ok, err := u.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete strategy: %w", err)
	}
	return ok, nil
}

// Deactivate is the soft delete.
func (u *DeleteStrategy) Deactivate(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, model.Invalidf("strategy id cannot be blank")
	}
	return u.repo.Deactivate(ctx, id)
}

func (u *DeleteStrategy) CanDelete(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, model.Invalidf("strategy id cannot be blank")
	}
	s, err := u.repo.StrategyByID(ctx, id)
	return s != nil, err
}
