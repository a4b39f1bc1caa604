package flow

import "sync/atomic"

// Token identifies one request issued through a Sequence.
type Token uint64

// Sequence hands out increasing tokens so a late result can tell whether a
// newer request superseded it.
type Sequence struct {
	n atomic.Uint64
}

func (s *Sequence) Next() Token { return Token(s.n.Add(1)) }

func (s *Sequence) IsCurrent(t Token) bool { return s.n.Load() == uint64(t) }
