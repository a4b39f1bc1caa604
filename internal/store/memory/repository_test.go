package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/flow"
)

var fixedNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func ids(list []model.Strategy) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func TestSeededSamples(t *testing.T) {
	r := New(WithClock(clock))
	ctx := context.Background()

	all := r.Strategies().Value()
	require.Len(t, all, 4)
	assert.Equal(t, []string{"strategy_1", "strategy_2", "strategy_3", "strategy_4"}, ids(all))
	assert.Equal(t, fixedNow.Add(-6*time.Hour), all[3].UpdatedAt)

	n, _ := r.ActiveCount(ctx)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"strategy_3"}, ids(r.StrategiesByType(model.Momentum).Value()))
	assert.Equal(t, []string{"strategy_2"}, ids(r.Search("RSI").Value()))
	assert.Equal(t, []string{"strategy_1", "strategy_3"}, ids(r.WithTags([]string{"trend", "volatility"}).Value()))
}

func TestSaveInsertsAndReplaces(t *testing.T) {
	r := New(WithClock(clock), WithoutSamples())
	ctx := context.Background()

	s := model.Strategy{ID: "a", Name: "A", Type: model.Custom, IsActive: true}
	_, err := r.Save(ctx, s)
	require.NoError(t, err)
	s.Name = "A2"
	_, err = r.Save(ctx, s)
	require.NoError(t, err)

	count, _ := r.Count(ctx)
	assert.Equal(t, 1, count)
	got, _ := r.StrategyByID(ctx, "a")
	require.NotNil(t, got)
	assert.Equal(t, "A2", got.Name)

	missing, _ := r.StrategyByID(ctx, "nope")
	assert.Nil(t, missing)
}

func TestDeleteMissingLeavesCollectionUnchanged(t *testing.T) {
	r := New(WithClock(clock))
	ctx := context.Background()
	before := r.Strategies().Value()

	ok, err := r.Delete(ctx, "strategy_404")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, r.Strategies().Value())

	ok, _ = r.Delete(ctx, "strategy_2")
	assert.True(t, ok)
	assert.Equal(t, []string{"strategy_1", "strategy_3", "strategy_4"}, ids(r.Strategies().Value()))
}

func TestMissingIDWritesDoNotNotify(t *testing.T) {
	r := New(WithClock(clock))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub := r.Strategies().Subscribe()
	defer sub.Close()
	_, err := sub.Next(ctx)
	require.NoError(t, err)

	ok, _ := r.Delete(ctx, "strategy_404")
	assert.False(t, ok)
	ok, _ = r.Activate(ctx, "strategy_404")
	assert.False(t, ok)
	ok, _ = r.Delete(ctx, "strategy_4")
	require.True(t, ok)

	next, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"strategy_1", "strategy_2", "strategy_3"}, ids(next))
}

func TestToggleRoundTrip(t *testing.T) {
	r := New(WithClock(clock))
	ctx := context.Background()

	ok, _ := r.Deactivate(ctx, "strategy_1")
	require.True(t, ok)
	ok, _ = r.Activate(ctx, "strategy_1")
	require.True(t, ok)

	got, _ := r.StrategyByID(ctx, "strategy_1")
	require.NotNil(t, got)
	assert.True(t, got.IsActive)
	assert.Equal(t, fixedNow, got.UpdatedAt)

	ok, _ = r.Activate(ctx, "ghost")
	assert.False(t, ok)
}

func TestQueriesEmitOnChange(t *testing.T) {
	r := New(WithClock(clock))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub := r.ActiveStrategies().Subscribe()
	defer sub.Close()
	first, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	_, err = r.Activate(ctx, "strategy_3")
	require.NoError(t, err)
	next, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, next, 4)
}

func TestConcurrentSavesAreNotLost(t *testing.T) {
	r := New(WithClock(clock), WithoutSamples())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Save(ctx, model.Strategy{ID: string(rune('A' + i)), Name: "n"})
		}(i)
	}
	wg.Wait()

	count, _ := r.Count(ctx)
	assert.Equal(t, 50, count)
	_, err := flow.Await(ctx, r.Strategies(), func(v []model.Strategy) bool { return len(v) == 50 })
	assert.NoError(t, err)
}
