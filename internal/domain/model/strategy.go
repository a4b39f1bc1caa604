package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxStrategyNameLength        = 100
	MaxStrategyDescriptionLength = 500

	recentlyModifiedWindow = 24 * time.Hour
)

// Strategy is a user-defined trading strategy. Values are treated as
// immutable; the With/Activate/Deactivate helpers return modified copies.
type Strategy struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Type        StrategyType           `json:"type"`
	IsActive    bool                   `json:"is_active"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
}

func (s Strategy) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return Invalidf("strategy id cannot be blank")
	}
	if strings.TrimSpace(s.Name) == "" {
		return Invalidf("strategy name cannot be blank")
	}
	if utf8.RuneCountInString(s.Name) > MaxStrategyNameLength {
		return Invalidf("strategy name cannot exceed %d characters", MaxStrategyNameLength)
	}
	if utf8.RuneCountInString(s.Description) > MaxStrategyDescriptionLength {
		return Invalidf("strategy description cannot exceed %d characters", MaxStrategyDescriptionLength)
	}
	return nil
}

// IsRecentlyModified reports an update within the last 24 hours.
func (s Strategy) IsRecentlyModified(now time.Time) bool {
	return s.UpdatedAt.After(now.Add(-recentlyModifiedWindow))
}

func (s Strategy) IsReadyForBacktest() bool {
	return s.IsActive && len(s.Parameters) > 0
}

func (s Strategy) WithUpdatedTimestamp(now time.Time) Strategy {
	c := s.Clone()
	c.UpdatedAt = now
	return c
}

func (s Strategy) Activate(now time.Time) Strategy {
	c := s.WithUpdatedTimestamp(now)
	c.IsActive = true
	return c
}

func (s Strategy) Deactivate(now time.Time) Strategy {
	c := s.WithUpdatedTimestamp(now)
	c.IsActive = false
	return c
}

// Clone copies the parameter map and tag slice so the copy can be changed
// without touching s.
func (s Strategy) Clone() Strategy {
	c := s
	if s.Parameters != nil {
		c.Parameters = make(map[string]interface{}, len(s.Parameters))
		for k, v := range s.Parameters {
			c.Parameters[k] = v
		}
	}
	if s.Tags != nil {
		c.Tags = append([]string(nil), s.Tags...)
	}
	return c
}

// HasAnyTag reports whether s carries at least one of tags.
func (s Strategy) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range s.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Matches reports a case-insensitive hit on name or description.
func (s Strategy) Matches(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.Description), q)
}
