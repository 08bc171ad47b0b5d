package engine

import (
	"sync/atomic"

	"crossbook/internal/common"
)

// order is a single slot in the store. The plain fields are written once
// between reservation and publication and are read-only afterwards.
type order struct {
	id         uint64      // Engine assigned order id
	side       common.Side // Order side
	instrument int         // Instrument identifier
	price      float64     // Limiting price
	quantity   int64       // Submitted quantity

	remaining atomic.Int64 // Remaining quantity, only ever decremented
	active    atomic.Bool  // Cleared once remaining reaches zero
	published atomic.Bool  // Set once the plain fields are visible
}

// live reports whether the order can still take part in a trade.
func (o *order) live() bool {
	return o.active.Load() && o.remaining.Load() > 0
}

// retireIfFilled deactivates an exhausted order. Only the first caller to
// observe the transition flips the flag.
func (o *order) retireIfFilled() bool {
	if o.remaining.Load() > 0 {
		return false
	}
	return o.active.CompareAndSwap(true, false)
}

func (o *order) view(slot int) OrderView {
	return OrderView{
		Slot:       slot,
		ID:         o.id,
		Side:       o.side,
		Instrument: o.instrument,
		Price:      o.price,
		Quantity:   o.quantity,
		Remaining:  o.remaining.Load(),
		Active:     o.active.Load(),
	}
}

// OrderView is a point in time copy of an order held by the engine.
type OrderView struct {
	Slot       int
	ID         uint64
	Side       common.Side
	Instrument int
	Price      float64
	Quantity   int64 // Total quantity requested
	Remaining  int64 // Remaining quantity
	Active     bool
}
