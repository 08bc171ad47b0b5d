package common

import (
	"fmt"
	"time"
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Valid reports whether the side is one the engine knows how to book.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// OrderAccepted is emitted once an order has been published into the store,
// before any matching is attempted for it.
type OrderAccepted struct {
	ID         uint64    // Engine assigned order id
	Side       Side      // Order side
	Instrument int       // Instrument identifier
	Quantity   int64     // Submitted quantity
	Price      float64   // Limiting price
	Time       time.Time // Time of acceptance
}

func (o OrderAccepted) String() string {
	return fmt.Sprintf(
		"Added Order: ID %d, %v, Instrument %d, Qty %d, Price %g",
		o.ID,
		o.Side,
		o.Instrument,
		o.Quantity,
		o.Price,
	)
}
