package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"algocrafter/logger"
)

// DefaultStopTimeout is how long a WhileSubscribed producer outlives its
// last subscriber.
const DefaultStopTimeout = 5 * time.Second

// SharingStarted decides when a shared producer runs.
type SharingStarted interface {
	stopAfter() (time.Duration, bool)
}

type eagerly struct{}

func (eagerly) stopAfter() (time.Duration, bool) { return 0, false }

type whileSubscribed struct{ stop time.Duration }

func (w whileSubscribed) stopAfter() (time.Duration, bool) { return w.stop, true }

// Eagerly starts the producer at once and keeps it until the parent
// context ends.
func Eagerly() SharingStarted { return eagerly{} }

// WhileSubscribed runs the producer while at least one subscriber exists,
// and for stop after the last one leaves. A negative stop means the
// default.
func WhileSubscribed(stop time.Duration) SharingStarted {
	if stop < 0 {
		stop = DefaultStopTimeout
	}
	return whileSubscribed{stop: stop}
}

type ShareOption[T any] func(*SharedState[T])

// WithCatch turns a producer failure into a state value.
func WithCatch[T any](fn func(err error, current T) T) ShareOption[T] {
	return func(s *SharedState[T]) { s.catch = fn }
}

func WithLogger[T any](entry *logger.Entry) ShareOption[T] {
	return func(s *SharedState[T]) { s.log = entry }
}

// SharedState exposes the latest value of a Source to any number of
// subscribers while running at most one producer.
type SharedState[T any] struct {
	parent  context.Context
	state   *MutableState[T]
	source  Source[T]
	started SharingStarted
	catch   func(error, T) T
	log     *logger.Entry

	mu          sync.Mutex
	subscribers int
	cancel      context.CancelFunc
	timer       *time.Timer
	timerGen    uint64
	starts      int
}

// Share wires source into a SharedState seeded with initial.
func Share[T any](parent context.Context, started SharingStarted, initial T, source Source[T], opts ...ShareOption[T]) *SharedState[T] {
	s := &SharedState[T]{
		parent:  parent,
		state:   NewMutableState(initial),
		source:  source,
		started: started,
		log:     logger.GetLogger().WithComponent("flow_share"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, lazy := started.stopAfter(); !lazy {
		s.mu.Lock()
		s.startLocked()
		s.mu.Unlock()
	}
	return s
}

func (s *SharedState[T]) Value() T { return s.state.Value() }

func (s *SharedState[T]) Subscribe() Subscription[T] {
	s.mu.Lock()
	s.subscribers++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.timerGen++
	}
	if s.cancel == nil {
		s.startLocked()
	}
	s.mu.Unlock()

	return &sharedSub[T]{Subscription: s.state.Subscribe(), release: s.release}
}

// Active reports whether the producer is running.
func (s *SharedState[T]) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Starts counts how many times the producer has been started.
func (s *SharedState[T]) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

func (s *SharedState[T]) startLocked() {
	if s.parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.starts++
	go s.run(ctx)
}

func (s *SharedState[T]) run(ctx context.Context) {
	err := s.source(ctx, func(v T) {
		if ctx.Err() == nil {
			s.state.Set(v)
		}
	})
	if err == nil || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return
	}
	s.log.WithError(err).Warn("shared producer failed")
	if s.catch != nil {
		s.state.Update(func(cur T) T { return s.catch(err, cur) })
	}
}

func (s *SharedState[T]) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers--
	if s.subscribers > 0 {
		return
	}
	stop, lazy := s.started.stopAfter()
	if !lazy {
		return
	}
	if stop == 0 {
		s.stopLocked()
		return
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(stop, func() { s.expire(gen) })
}

func (s *SharedState[T]) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen || s.subscribers > 0 {
		return
	}
	s.timer = nil
	s.stopLocked()
}

func (s *SharedState[T]) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

type sharedSub[T any] struct {
	Subscription[T]
	once    sync.Once
	release func()
}

func (s *sharedSub[T]) Close() {
	s.once.Do(func() {
		s.Subscription.Close()
		s.release()
	})
}
