package flow

import (
	"context"
	"errors"
	"fmt"
)

type LifecycleState int

const (
	Destroyed LifecycleState = iota
	Initialized
	Created
	Started
	Resumed
)

func (s LifecycleState) String() string {
	switch s {
	case Destroyed:
		return "DESTROYED"
	case Initialized:
		return "INITIALIZED"
	case Created:
		return "CREATED"
	case Started:
		return "STARTED"
	case Resumed:
		return "RESUMED"
	default:
		return fmt.Sprintf("LifecycleState(%d)", int(s))
	}
}

var (
	ErrDestroyed        = errors.New("flow: lifecycle destroyed")
	ErrInvalidThreshold = errors.New("flow: lifecycle threshold must be above INITIALIZED")
)

// Lifecycle tracks the visibility of one screen host.
type Lifecycle struct {
	state *MutableState[LifecycleState]
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: NewMutableState(Initialized)}
}

func (l *Lifecycle) Current() LifecycleState { return l.state.Value() }

// MoveTo changes the state. Leaving Destroyed is refused.
func (l *Lifecycle) MoveTo(next LifecycleState) error {
	var err error
	l.state.Update(func(cur LifecycleState) LifecycleState {
		if cur == Destroyed && next != Destroyed {
			err = ErrDestroyed
			return cur
		}
		return next
	})
	return err
}

func (l *Lifecycle) Observe() Observable[LifecycleState] { return l.state }

type gateState int

const (
	gateInactive gateState = iota
	gateActiveObserving
)

// RepeatOnLifecycle runs block each time the lifecycle reaches min and
// cancels it when the lifecycle drops below min. It returns nil once the
// lifecycle is destroyed and ctx.Err() when ctx ends first. A block is
// always finished before RepeatOnLifecycle returns or relaunches it.
func RepeatOnLifecycle(ctx context.Context, lc *Lifecycle, min LifecycleState, block func(ctx context.Context)) error {
	if min <= Initialized {
		return ErrInvalidThreshold
	}

	sub := lc.state.Subscribe()
	defer sub.Close()

	gate := gateInactive
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	deactivate := func() {
		if gate != gateActiveObserving {
			return
		}
		cancel()
		<-done
		gate = gateInactive
	}
	defer deactivate()

	for {
		st, err := sub.Next(ctx)
		if err != nil {
			return err
		}
		switch {
		case st == Destroyed:
			deactivate()
			return nil
		case st >= min && gate == gateInactive:
			var child context.Context
			child, cancel = context.WithCancel(ctx)
			done = make(chan struct{})
			go func(finished chan struct{}) {
				defer close(finished)
				block(child)
			}(done)
			gate = gateActiveObserving
		case st < min && gate == gateActiveObserving:
			deactivate()
		}
	}
}

// ObserveEffects drains effects into onEffect while lc is at least Started.
// Effects sent in between stay buffered for the next activation.
func ObserveEffects[E any](ctx context.Context, lc *Lifecycle, effects *Effects[E], onEffect func(E)) error {
	return RepeatOnLifecycle(ctx, lc, Started, func(ctx context.Context) {
		for {
			e, err := effects.Receive(ctx)
			if err != nil {
				return
			}
			onEffect(e)
		}
	})
}

// ObserveState collects obs into onState while lc is at least Started.
// The subscription is dropped while the host is in the background so a
// WhileSubscribed producer can wind down.
func ObserveState[T any](ctx context.Context, lc *Lifecycle, obs Observable[T], onState func(T)) error {
	return RepeatOnLifecycle(ctx, lc, Started, func(ctx context.Context) {
		_ = Collect(ctx, obs, onState)
	})
}
