package engine

import (
	"errors"
	"sync/atomic"
)

var ErrBookFull = errors.New("order book full")

// Store is a fixed capacity arena of orders. Slots are handed out in order
// and never reused; an order is only ever deactivated, never removed.
type Store struct {
	orders []order
	count  atomic.Int64
}

func NewStore(capacity int) *Store {
	return &Store{
		orders: make([]order, capacity),
	}
}

// Capacity is the maximum number of orders the store will ever hold.
func (s *Store) Capacity() int { return len(s.orders) }

// Len is the number of reserved slots. It only grows.
func (s *Store) Len() int { return int(s.count.Load()) }

// reserve claims the next free slot. The count never passes the capacity,
// so a full store is left untouched.
func (s *Store) reserve() (int, error) {
	for {
		n := s.count.Load()
		if n >= int64(len(s.orders)) {
			return -1, ErrBookFull
		}
		if s.count.CompareAndSwap(n, n+1) {
			return int(n), nil
		}
	}
}

// publish makes a populated slot visible to scanners. Readers check the
// atomic flags before touching the plain fields.
func (s *Store) publish(slot int) {
	o := &s.orders[slot]
	o.published.Store(true)
	o.active.Store(true)
}

func (s *Store) at(slot int) *order {
	return &s.orders[slot]
}

// View returns a copy of the order in the given slot, if it has been
// published.
func (s *Store) View(slot int) (OrderView, bool) {
	if slot < 0 || slot >= s.Len() {
		return OrderView{}, false
	}
	o := s.at(slot)
	if !o.published.Load() {
		return OrderView{}, false
	}
	return o.view(slot), true
}
