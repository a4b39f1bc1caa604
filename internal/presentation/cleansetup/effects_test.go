package cleansetup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"algocrafter/internal/flow"
)

func awaitEffects(t *testing.T, vm *EffectsViewModel, pred func(EffectsState) bool) EffectsState {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := flow.Await(ctx, vm.State(), pred)
	require.NoError(t, err)
	return s
}

func nextEffect(t *testing.T, vm *EffectsViewModel) Effect {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	e, err := vm.Effects().Receive(ctx)
	require.NoError(t, err)
	return e
}

func TestEffectsLoadsAfterDelay(t *testing.T) {
	vm := NewEffects(context.Background(), nil, 20*time.Millisecond, testOptions())
	defer vm.Close()

	awaitEffects(t, vm, func(s EffectsState) bool { return s.IsLoading })
	s := awaitEffects(t, vm, func(s EffectsState) bool { return !s.IsLoading && len(s.Items) > 0 })
	assert.Len(t, s.Items, ItemCount)
}

func TestEffectsMessagesAndNavigation(t *testing.T) {
	vm := NewEffects(context.Background(), nil, 0, testOptions())
	defer vm.Close()

	s := awaitEffects(t, vm, func(s EffectsState) bool { return len(s.Items) == ItemCount })
	vm.HandleEvent(ToggleFavourite{Item: s.Items[0]})
	assert.Equal(t, MessageEffect{Message: "Item Item 0 is added to favourites"}, nextEffect(t, vm))
	s = awaitEffects(t, vm, func(s EffectsState) bool { return s.Items[0].IsFavourite })

	vm.HandleEvent(ToggleFavourite{Item: s.Items[0]})
	assert.Equal(t, MessageEffect{Message: "Item Item 0 is removed from favourites"}, nextEffect(t, vm))

	vm.HandleEvent(NavigateToHome{})
	vm.HandleEvent(NavigateBack{})
	assert.Equal(t, NavigateToHomeEffect{}, nextEffect(t, vm))
	assert.Equal(t, NavigateBackEffect{}, nextEffect(t, vm))
}

func TestEffectsLoadErrorIsAMessage(t *testing.T) {
	failing := func(context.Context) ([]Item, error) { return nil, errors.New("timeout") }
	vm := NewEffects(context.Background(), failing, 0, testOptions())
	defer vm.Close()

	sub := vm.State().Subscribe()
	defer sub.Close()

	assert.Equal(t, MessageEffect{Message: "Error loading data: timeout"}, nextEffect(t, vm))
	s := awaitEffects(t, vm, func(s EffectsState) bool { return !s.IsLoading })
	assert.Empty(t, s.Items)
}

func TestEffectsStaleRefreshIsDropped(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int32
	load := func(context.Context) ([]Item, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-gate
			return []Item{{Name: "stale"}}, nil
		}
		return []Item{{Name: "fresh"}}, nil
	}
	vm := NewEffects(context.Background(), load, 0, testOptions())
	defer vm.Close()

	vm.HandleEvent(Refresh{})
	<-entered
	vm.HandleEvent(Refresh{})
	awaitEffects(t, vm, func(s EffectsState) bool { return len(s.Items) == 1 && s.Items[0].Name == "fresh" })

	// The older load completes last and must not overwrite the newer result.
	close(gate)
	vm.Wait()
	assert.Equal(t, EffectsState{Items: []Item{{Name: "fresh"}}}, vm.Local().Value())
	assert.Equal(t, int32(2), calls.Load())
}

func TestEffectsBackToBackRefreshesSettle(t *testing.T) {
	for i := 0; i < 200; i++ {
		vm := NewEffects(context.Background(), nil, 0, testOptions())
		vm.HandleEvent(Refresh{})
		vm.HandleEvent(Refresh{})
		vm.Wait()

		s := vm.Local().Value()
		vm.Close()
		if s.IsLoading {
			t.Fatalf("run %d: still loading after every refresh finished", i)
		}
		if len(s.Items) != ItemCount {
			t.Fatalf("run %d: got %d items, want %d", i, len(s.Items), ItemCount)
		}
	}
}

func TestEffectsStaleFailureIsSilent(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int32
	load := func(context.Context) ([]Item, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-gate
			return nil, errors.New("timeout")
		}
		return []Item{{Name: "fresh"}}, nil
	}
	vm := NewEffects(context.Background(), load, 0, testOptions())
	defer vm.Close()

	vm.HandleEvent(Refresh{})
	<-entered
	vm.HandleEvent(Refresh{})
	close(gate)
	vm.Wait()

	assert.Equal(t, EffectsState{Items: []Item{{Name: "fresh"}}}, vm.Local().Value())
	assert.Zero(t, vm.Effects().Len())
}
