package flow

import (
	"context"
	"sync"
)

// DefaultEffectBuffer matches the buffered channel capacity used for
// screen effects.
const DefaultEffectBuffer = 64

// EffectStats tracks effect traffic for a single queue.
type EffectStats struct {
	Sent      uint64
	Delivered uint64
	Dropped   uint64
}

// Effects is a point-to-point FIFO of one-shot values. Values sent while
// nobody receives stay queued; each value is taken by exactly one Receive.
type Effects[E any] struct {
	ch chan E

	mu    sync.Mutex
	stats EffectStats
}

func NewEffects[E any](capacity int) *Effects[E] {
	if capacity <= 0 {
		capacity = DefaultEffectBuffer
	}
	return &Effects[E]{ch: make(chan E, capacity)}
}

// Send enqueues e, blocking while the buffer is full.
func (e *Effects[E]) Send(ctx context.Context, effect E) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case e.ch <- effect:
		e.count(func(s *EffectStats) { s.Sent++ })
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend enqueues e without blocking and drops it when the buffer is full.
func (e *Effects[E]) TrySend(effect E) bool {
	select {
	case e.ch <- effect:
		e.count(func(s *EffectStats) { s.Sent++ })
		return true
	default:
		e.count(func(s *EffectStats) { s.Dropped++ })
		return false
	}
}

// Receive takes the oldest queued value. It never takes a value when ctx is
// already done.
func (e *Effects[E]) Receive(ctx context.Context) (E, error) {
	var zero E
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	select {
	case v := <-e.ch:
		e.count(func(s *EffectStats) { s.Delivered++ })
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (e *Effects[E]) Len() int { return len(e.ch) }

func (e *Effects[E]) Cap() int { return cap(e.ch) }

func (e *Effects[E]) Stats() EffectStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Effects[E]) count(fn func(*EffectStats)) {
	e.mu.Lock()
	fn(&e.stats)
	e.mu.Unlock()
}
