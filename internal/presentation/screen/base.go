// Package screen is the shared plumbing of every view model: a task scope,
// local state, an effect queue and WhileSubscribed sharing of the screen
// state.
package screen

import (
	"context"
	"sync"
	"time"

	"algocrafter/internal/flow"
	"algocrafter/internal/metrics"
	"algocrafter/logger"
)

// Options tunes a view model. Zero values pick the defaults.
type Options struct {
	StopTimeout  time.Duration
	EffectBuffer int
	Log          *logger.Log
}

// NoEffect is the effect type of screens that keep navigation in state.
type NoEffect struct{}

type Base[S any, E any] struct {
	name    string
	scope   *flow.Scope
	local   *flow.MutableState[S]
	effects *flow.Effects[E]
	stop    time.Duration
	log     *logger.Entry

	qmu      sync.Mutex
	queue    []func(ctx context.Context)
	draining bool
}

func NewBase[S any, E any](parent context.Context, name string, initial S, opts Options) *Base[S, E] {
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = flow.DefaultStopTimeout
	}
	if opts.Log == nil {
		opts.Log = logger.GetLogger()
	}
	return &Base[S, E]{
		name:    name,
		scope:   flow.NewScope(parent),
		local:   flow.NewMutableState(initial),
		effects: flow.NewEffects[E](opts.EffectBuffer),
		stop:    opts.StopTimeout,
		log:     opts.Log.WithComponent(name),
	}
}

// Local is the screen's private state, written only by its event handler.
func (b *Base[S, E]) Local() *flow.MutableState[S] { return b.local }

func (b *Base[S, E]) Effects() *flow.Effects[E] { return b.effects }

func (b *Base[S, E]) Log() *logger.Entry { return b.log }

func (b *Base[S, E]) Context() context.Context { return b.scope.Context() }

// Share publishes source as the screen state. The producer runs while the
// screen is observed and for the stop timeout after that.
func (b *Base[S, E]) Share(initial S, source flow.Source[S], opts ...flow.ShareOption[S]) *flow.SharedState[S] {
	opts = append([]flow.ShareOption[S]{flow.WithLogger[S](b.log)}, opts...)
	return flow.Share(b.scope.Context(), flow.WhileSubscribed(b.stop), initial, source, opts...)
}

// ShareLocal shares the local state as is.
func (b *Base[S, E]) ShareLocal(opts ...flow.ShareOption[S]) *flow.SharedState[S] {
	return b.Share(b.local.Value(), flow.FromObservable[S](b.local), opts...)
}

// Emit queues an effect, blocking while the queue is full. Effects keep the
// order of Emit calls. Emitting after Close is logged and discarded.
func (b *Base[S, E]) Emit(effect E) {
	if err := b.effects.Send(b.scope.Context(), effect); err != nil {
		b.log.WithError(err).Debug("effect discarded after close")
	}
}

// Launch runs fn on the screen scope.
func (b *Base[S, E]) Launch(fn func(ctx context.Context)) bool {
	return b.scope.Launch(fn)
}

// Serial runs fn on the screen scope after every fn queued before it has
// returned.
func (b *Base[S, E]) Serial(fn func(ctx context.Context)) {
	b.qmu.Lock()
	b.queue = append(b.queue, fn)
	if b.draining {
		b.qmu.Unlock()
		return
	}
	b.draining = true
	b.qmu.Unlock()

	if !b.scope.Launch(b.drain) {
		b.qmu.Lock()
		b.queue, b.draining = nil, false
		b.qmu.Unlock()
	}
}

func (b *Base[S, E]) drain(ctx context.Context) {
	for {
		b.qmu.Lock()
		if len(b.queue) == 0 || ctx.Err() != nil {
			b.queue, b.draining = nil, false
			b.qmu.Unlock()
			return
		}
		fn := b.queue[0]
		b.queue = b.queue[1:]
		b.qmu.Unlock()
		fn(ctx)
	}
}

// BufferGauge exposes the effect queue to the effect buffer metrics.
func (b *Base[S, E]) BufferGauge() metrics.BufferGauge {
	return metrics.BufferGauge{Name: b.name, Length: b.effects.Len, Capacity: b.effects.Cap()}
}

// Wait blocks until every launched task has returned.
func (b *Base[S, E]) Wait() { b.scope.Wait() }

// Close cancels the scope and waits for its tasks.
func (b *Base[S, E]) Close() { b.scope.Close() }
