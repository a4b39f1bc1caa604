package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLifecycleRefusesToLeaveDestroyed(t *testing.T) {
	lc := NewLifecycle()
	if lc.Current() != Initialized {
		t.Fatalf("unexpected initial state %s", lc.Current())
	}
	if err := lc.MoveTo(Destroyed); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := lc.MoveTo(Started); !errors.Is(err, ErrDestroyed) {
		t.Fatalf("expected ErrDestroyed, got %v", err)
	}
	if lc.Current() != Destroyed {
		t.Fatalf("state changed after destroy: %s", lc.Current())
	}
}

func TestRepeatOnLifecycleRejectsLowThreshold(t *testing.T) {
	err := RepeatOnLifecycle(context.Background(), NewLifecycle(), Initialized, func(context.Context) {})
	if !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestRepeatOnLifecycleRestartsBlock(t *testing.T) {
	lc := NewLifecycle()
	var (
		mu      sync.Mutex
		runs    int
		running bool
	)
	started := make(chan struct{}, 4)
	stopped := make(chan struct{}, 4)

	done := make(chan error, 1)
	go func() {
		done <- RepeatOnLifecycle(context.Background(), lc, Started, func(ctx context.Context) {
			mu.Lock()
			runs++
			running = true
			mu.Unlock()
			started <- struct{}{}
			<-ctx.Done()
			mu.Lock()
			running = false
			mu.Unlock()
			stopped <- struct{}{}
		})
	}()

	lc.MoveTo(Created)
	lc.MoveTo(Started)
	<-started
	lc.MoveTo(Resumed)
	lc.MoveTo(Created)
	<-stopped
	lc.MoveTo(Resumed)
	<-started
	lc.MoveTo(Destroyed)

	if err := <-done; err != nil {
		t.Fatalf("expected nil on destroy, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if runs != 2 || running {
		t.Fatalf("expected 2 finished runs, got runs=%d running=%v", runs, running)
	}
}

func TestRepeatOnLifecycleParentCancel(t *testing.T) {
	lc := NewLifecycle()
	lc.MoveTo(Resumed)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RepeatOnLifecycle(ctx, lc, Started, func(ctx context.Context) { <-ctx.Done() })
	}()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestObserveEffectsBuffersWhileStopped(t *testing.T) {
	lc := NewLifecycle()
	lc.MoveTo(Created)
	fx := NewEffects[string](0)

	received := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- ObserveEffects(context.Background(), lc, fx, func(e string) { received <- e })
	}()

	ctx := context.Background()
	fx.Send(ctx, "E1")
	fx.Send(ctx, "E2")
	fx.Send(ctx, "E3")

	select {
	case e := <-received:
		t.Fatalf("effect %s delivered before STARTED", e)
	case <-time.After(20 * time.Millisecond):
	}

	lc.MoveTo(Started)
	for _, want := range []string{"E1", "E2", "E3"} {
		select {
		case got := <-received:
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	lc.MoveTo(Destroyed)
	if err := <-done; err != nil {
		t.Fatalf("observe: %v", err)
	}
}

func TestObserveStateDropsSubscriptionInBackground(t *testing.T) {
	lc := NewLifecycle()
	state := NewMutableState(0)
	values := make(chan int, 8)

	done := make(chan error, 1)
	go func() {
		done <- ObserveState[int](context.Background(), lc, state, func(v int) { values <- v })
	}()

	lc.MoveTo(Started)
	if v := <-values; v != 0 {
		t.Fatalf("expected current value first, got %d", v)
	}
	waitFor(t, "subscriber", func() bool { return state.SubscriberCount() == 1 })

	lc.MoveTo(Created)
	waitFor(t, "unsubscribe", func() bool { return state.SubscriberCount() == 0 })

	lc.MoveTo(Destroyed)
	if err := <-done; err != nil {
		t.Fatalf("observe: %v", err)
	}
}

func TestSequence(t *testing.T) {
	var seq Sequence
	first := seq.Next()
	second := seq.Next()
	if seq.IsCurrent(first) || !seq.IsCurrent(second) {
		t.Fatalf("only the newest token may be current")
	}
}
