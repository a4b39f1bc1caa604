package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validStrategy() Strategy {
	return Strategy{
		ID:         "strategy_1",
		Name:       "MA Crossover",
		Type:       TrendFollowing,
		IsActive:   true,
		CreatedAt:  now.Add(-48 * time.Hour),
		UpdatedAt:  now.Add(-48 * time.Hour),
		Parameters: map[string]interface{}{"fastPeriod": 20},
		Tags:       []string{"trend"},
	}
}

func TestStrategyValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Strategy)
		ok     bool
	}{
		{"valid", func(*Strategy) {}, true},
		{"blank id", func(s *Strategy) { s.ID = "  " }, false},
		{"blank name", func(s *Strategy) { s.Name = "" }, false},
		{"name at limit", func(s *Strategy) { s.Name = strings.Repeat("n", 100) }, true},
		{"name too long", func(s *Strategy) { s.Name = strings.Repeat("n", 101) }, false},
		{"description too long", func(s *Strategy) { s.Description = strings.Repeat("d", 501) }, false},
		{"multibyte name at limit", func(s *Strategy) { s.Name = strings.Repeat("é", 100) }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := validStrategy()
			tc.mutate(&s)
			err := s.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestStrategyActivationCopies(t *testing.T) {
	s := validStrategy()
	off := s.Deactivate(now)
	if off.IsActive || !s.IsActive {
		t.Fatalf("deactivate must return a modified copy")
	}
	if !off.UpdatedAt.Equal(now) || !off.CreatedAt.Equal(s.CreatedAt) {
		t.Fatalf("timestamps not handled: %+v", off)
	}
	off.Parameters["fastPeriod"] = 5
	if s.Parameters["fastPeriod"] != 20 {
		t.Fatalf("parameters shared between copies")
	}
	if on := off.Activate(now.Add(time.Minute)); !on.IsActive {
		t.Fatalf("activate did not activate")
	}
}

func TestStrategyPredicates(t *testing.T) {
	s := validStrategy()
	if s.IsRecentlyModified(now) {
		t.Fatalf("48h old update is not recent")
	}
	if !s.WithUpdatedTimestamp(now.Add(-23 * time.Hour)).IsRecentlyModified(now) {
		t.Fatalf("23h old update is recent")
	}
	if !s.IsReadyForBacktest() {
		t.Fatalf("active with parameters is ready")
	}
	s.Parameters = nil
	if s.IsReadyForBacktest() {
		t.Fatalf("no parameters means not ready")
	}
	if !s.Matches("crossover") || s.Matches("rsi") {
		t.Fatalf("search match wrong")
	}
	if !s.HasAnyTag([]string{"x", "trend"}) || s.HasAnyTag([]string{"x"}) {
		t.Fatalf("tag match wrong")
	}
}

func TestParseStrategyType(t *testing.T) {
	got, err := ParseStrategyType("mean_reversion")
	if err != nil || got != MeanReversion {
		t.Fatalf("parse: %v %v", got, err)
	}
	if _, err := ParseStrategyType("scalping"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected invalid type error, got %v", err)
	}
}
