package engine

import "sync/atomic"

// Sequencer hands out strictly increasing order ids.
type Sequencer struct {
	next atomic.Uint64
}

// NewSequencer creates a sequencer whose first id is start.
func NewSequencer(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1) - 1
}

// Peek returns the id the next call to Next will hand out.
func (s *Sequencer) Peek() uint64 {
	return s.next.Load()
}
