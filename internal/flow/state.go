// Package flow holds the reactive primitives the presentation layer is built
// on: an observable state container, lazily shared producers, a buffered
// one-shot effect queue and lifecycle-gated observation.
package flow

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Next once the subscription has been closed.
var ErrClosed = errors.New("flow: subscription closed")

// Subscription delivers values of an Observable in order.
type Subscription[T any] interface {
	// Next blocks until the next value is available, the subscription is
	// closed or ctx is done.
	Next(ctx context.Context) (T, error)
	Close()
}

// Observable is a value that changes over time. A new subscription first
// yields the current value and then each later one.
type Observable[T any] interface {
	Value() T
	Subscribe() Subscription[T]
}

// MutableState holds exactly one current value. Writers never block on
// slow subscribers: each subscriber has its own backlog, filled under the
// state lock so every subscriber sees the same sequence.
type MutableState[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[*subscriber[T]]struct{}
}

func NewMutableState[T any](initial T) *MutableState[T] {
	return &MutableState[T]{
		value: initial,
		subs:  make(map[*subscriber[T]]struct{}),
	}
}

func (s *MutableState[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *MutableState[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically and publishes the
// result. fn must not call back into s.
func (s *MutableState[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
	for sub := range s.subs {
		sub.push(s.value)
	}
	return s.value
}

// TryUpdate is Update for writes that may turn out to be no-ops. When fn
// reports false the value is left alone and nothing is published.
func (s *MutableState[T]) TryUpdate(fn func(T) (T, bool)) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, changed := fn(s.value)
	if !changed {
		return s.value, false
	}
	s.value = next
	for sub := range s.subs {
		sub.push(s.value)
	}
	return s.value, true
}

func (s *MutableState[T]) Subscribe() Subscription[T] {
	sub := newSubscriber[T]()
	sub.release = func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}

	s.mu.Lock()
	sub.push(s.value)
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *MutableState[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

type subscriber[T any] struct {
	mu      sync.Mutex
	pending []T
	closed  bool
	signal  chan struct{}
	done    chan struct{}
	once    sync.Once
	release func()
}

func newSubscriber[T any]() *subscriber[T] {
	return &subscriber[T]{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, v)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return zero, ErrClosed
		}
		if len(s.pending) > 0 {
			v := s.pending[0]
			s.pending[0] = zero
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-s.done:
		case <-s.signal:
		}
	}
}

func (s *subscriber[T]) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.pending = nil
		s.mu.Unlock()
		close(s.done)
		if s.release != nil {
			s.release()
		}
	})
}
