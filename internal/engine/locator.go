package engine

import (
	"math"

	"crossbook/internal/common"
)

// Best is the top of book for one instrument. A side with no live order has
// slot -1 and an infinite price (-Inf for buys, +Inf for sells).
type Best struct {
	BuySlot   int
	SellSlot  int
	BuyPrice  float64
	SellPrice float64
}

func emptyBest() Best {
	return Best{
		BuySlot:   -1,
		SellSlot:  -1,
		BuyPrice:  math.Inf(-1),
		SellPrice: math.Inf(1),
	}
}

// Crossed reports whether both sides exist and the bid meets the ask.
func (b Best) Crossed() bool {
	return b.BuySlot >= 0 && b.SellSlot >= 0 && b.BuyPrice >= b.SellPrice
}

// Locator finds the best live buy and sell for an instrument. Among equal
// prices the lowest slot, i.e. the earliest reservation, wins.
type Locator interface {
	// Track is called once for every order after it has been published.
	Track(slot int)
	// Locate has no side effects visible to the engine.
	Locate(instrument int) Best
}

// scanLocator walks every slot in the store on each lookup. The cost is
// linear in the number of orders ever accepted, across all instruments.
type scanLocator struct {
	store *Store
}

func newScanLocator(store *Store) *scanLocator {
	return &scanLocator{store: store}
}

func (l *scanLocator) Track(int) {}

func (l *scanLocator) Locate(instrument int) Best {
	best := emptyBest()

	n := l.store.Len()
	for slot := 0; slot < n; slot++ {
		o := l.store.at(slot)
		if !o.active.Load() || o.instrument != instrument {
			continue
		}
		if o.remaining.Load() <= 0 {
			continue
		}

		switch o.side {
		case common.Buy:
			if o.price > best.BuyPrice {
				best.BuyPrice = o.price
				best.BuySlot = slot
			}
		case common.Sell:
			if o.price < best.SellPrice {
				best.SellPrice = o.price
				best.SellSlot = slot
			}
		}
	}
	return best
}
