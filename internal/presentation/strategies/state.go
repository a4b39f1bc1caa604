package strategies

import (
	"strings"
	"time"

	"algocrafter/internal/domain/model"
)

type Item struct {
	ID                 string
	Name               string
	Description        string
	IsActive           bool
	Type               string
	LastUpdated        string
	IsRecentlyModified bool
	Tags               []string
}

func toItem(s model.Strategy, now time.Time) Item {
	return Item{
		ID:                 s.ID,
		Name:               s.Name,
		Description:        s.Description,
		IsActive:           s.IsActive,
		Type:               s.Type.String(),
		LastUpdated:        s.UpdatedAt.Format(time.RFC3339),
		IsRecentlyModified: s.IsRecentlyModified(now),
		Tags:               append([]string(nil), s.Tags...),
	}
}

type DeleteConfirmation struct {
	StrategyID   string
	StrategyName string
	IsVisible    bool
}

// State is the strategy list plus the local filters. An empty FilterType
// applies no type filter.
type State struct {
	IsLoading          bool
	Strategies         []Item
	Error              string
	SearchQuery        string
	FilterType         string
	ShowActiveOnly     bool
	DeleteConfirmation *DeleteConfirmation
}

func (s State) HasStrategies() bool { return len(s.Strategies) > 0 }

func (s State) ActiveStrategiesCount() int {
	n := 0
	for _, it := range s.Strategies {
		if it.IsActive {
			n++
		}
	}
	return n
}

// FilteredStrategies applies search, type and active filters together.
func (s State) FilteredStrategies() []Item {
	query := strings.ToLower(strings.TrimSpace(s.SearchQuery))
	out := make([]Item, 0, len(s.Strategies))
	for _, it := range s.Strategies {
		if query != "" &&
			!strings.Contains(strings.ToLower(it.Name), query) &&
			!strings.Contains(strings.ToLower(it.Description), query) {
			continue
		}
		if s.FilterType != "" && !strings.EqualFold(it.Type, s.FilterType) {
			continue
		}
		if s.ShowActiveOnly && !it.IsActive {
			continue
		}
		out = append(out, it)
	}
	return out
}
