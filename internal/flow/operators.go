package flow

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Source produces values by calling emit until ctx is done or it fails.
type Source[T any] func(ctx context.Context, emit func(T)) error

// Map returns a read-only view of src with fn applied to every value.
func Map[T, U any](src Observable[T], fn func(T) U) Observable[U] {
	return mapped[T, U]{src: src, fn: fn}
}

type mapped[T, U any] struct {
	src Observable[T]
	fn  func(T) U
}

func (m mapped[T, U]) Value() U { return m.fn(m.src.Value()) }

func (m mapped[T, U]) Subscribe() Subscription[U] {
	return &mappedSub[T, U]{inner: m.src.Subscribe(), fn: m.fn}
}

type mappedSub[T, U any] struct {
	inner Subscription[T]
	fn    func(T) U
}

func (s *mappedSub[T, U]) Next(ctx context.Context) (U, error) {
	v, err := s.inner.Next(ctx)
	if err != nil {
		var zero U
		return zero, err
	}
	return s.fn(v), nil
}

func (s *mappedSub[T, U]) Close() { s.inner.Close() }

// FromObservable turns an observable into a source that replays it.
func FromObservable[T any](obs Observable[T]) Source[T] {
	return func(ctx context.Context, emit func(T)) error {
		return Collect(ctx, obs, emit)
	}
}

// Collect calls fn for every value of obs until ctx is done. It returns nil
// when ctx ends the collection.
func Collect[T any](ctx context.Context, obs Observable[T], fn func(T)) error {
	sub := obs.Subscribe()
	defer sub.Close()
	for {
		v, err := sub.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fn(v)
	}
}

// Await blocks until obs holds a value matching pred.
func Await[T any](ctx context.Context, obs Observable[T], pred func(T) bool) (T, error) {
	sub := obs.Subscribe()
	defer sub.Close()
	for {
		v, err := sub.Next(ctx)
		if err != nil {
			return v, err
		}
		if pred(v) {
			return v, nil
		}
	}
}

// Combine emits fn(a, b) whenever either side changes, once both have a
// value. Both sides are collected in one errgroup; the first failure ends
// the combination.
func Combine[A, B, R any](a Observable[A], b Observable[B], fn func(A, B) R) Source[R] {
	return func(ctx context.Context, emit func(R)) error {
		var (
			mu    sync.Mutex
			lastA A
			lastB B
			haveA bool
			haveB bool
		)
		publish := func() {
			if haveA && haveB {
				emit(fn(lastA, lastB))
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return Collect(gctx, a, func(v A) {
				mu.Lock()
				defer mu.Unlock()
				lastA, haveA = v, true
				publish()
			})
		})
		g.Go(func() error {
			return Collect(gctx, b, func(v B) {
				mu.Lock()
				defer mu.Unlock()
				lastB, haveB = v, true
				publish()
			})
		})

		err := g.Wait()
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
}
