package flow

import (
	"context"
	"sync"
)

// Scope owns the goroutines of one screen. Cancel stops them all.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

func (s *Scope) Context() context.Context { return s.ctx }

// Launch runs fn on its own goroutine. It reports false once the scope is
// cancelled.
func (s *Scope) Launch(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
	return true
}

func (s *Scope) Cancel() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
}

// Wait blocks until every launched goroutine has returned.
func (s *Scope) Wait() { s.wg.Wait() }

func (s *Scope) Close() {
	s.Cancel()
	s.Wait()
}
