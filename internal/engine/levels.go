package engine

import (
	"slices"
	"sync"

	"crossbook/internal/common"

	"github.com/tidwall/btree"
)

// PriceLevel holds the slots resting at one price, in ascending slot order.
type PriceLevel struct {
	priceLevel float64
	slots      []int
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// levelBook is the price ladder of a single instrument.
type levelBook struct {
	mu   sync.Mutex
	bids *PriceLevels
	asks *PriceLevels
}

// levelIndex keeps each instrument's orders bucketed by price so the top of
// book is found without walking the whole store. Exhausted orders are
// dropped lazily the next time their level is inspected.
type levelIndex struct {
	store *Store
	books []levelBook
}

func newLevelIndex(store *Store, instruments int) *levelIndex {
	idx := &levelIndex{
		store: store,
		books: make([]levelBook, instruments),
	}
	opts := btree.Options{NoLocks: true}
	for i := range idx.books {
		// Sorted greatest first.
		idx.books[i].bids = btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
			return a.priceLevel > b.priceLevel
		}, opts)
		// Sorted least first.
		idx.books[i].asks = btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
			return a.priceLevel < b.priceLevel
		}, opts)
	}
	return idx
}

func (idx *levelIndex) Track(slot int) {
	o := idx.store.at(slot)
	book := &idx.books[o.instrument]

	book.mu.Lock()
	defer book.mu.Unlock()

	levels := book.asks
	if o.side == common.Buy {
		levels = book.bids
	}

	// Levels comparator only accounts for price levels, so we create a dummy
	// price level for the search.
	level, ok := levels.GetMut(&PriceLevel{priceLevel: o.price})
	if !ok {
		levels.Set(&PriceLevel{
			priceLevel: o.price,
			slots:      []int{slot},
		})
		return
	}

	// Concurrent submitters may publish out of reservation order.
	i, _ := slices.BinarySearch(level.slots, slot)
	level.slots = slices.Insert(level.slots, i, slot)
}

func (idx *levelIndex) Locate(instrument int) Best {
	best := emptyBest()
	book := &idx.books[instrument]

	book.mu.Lock()
	defer book.mu.Unlock()

	if slot, price, ok := idx.top(book.bids); ok {
		best.BuySlot, best.BuyPrice = slot, price
	}
	if slot, price, ok := idx.top(book.asks); ok {
		best.SellSlot, best.SellPrice = slot, price
	}
	return best
}

// top returns the earliest live slot on the best level, deleting levels that
// no longer hold any live order.
func (idx *levelIndex) top(levels *PriceLevels) (int, float64, bool) {
	for {
		level, ok := levels.MinMut()
		if !ok {
			return -1, 0, false
		}

		// An exhausted order never becomes live again.
		level.slots = slices.DeleteFunc(level.slots, func(slot int) bool {
			return !idx.store.at(slot).live()
		})
		if len(level.slots) > 0 {
			return level.slots[0], level.priceLevel, true
		}
		levels.Delete(level)
	}
}

// FlatPriceLevel is an exported copy of a price level, used when inspecting
// the ladder.
type FlatPriceLevel struct {
	PriceLevel float64
	Slots      []int
}

// Ladder returns the current bid and ask levels of an instrument, best first.
// Levels are returned as tracked, exhausted slots included until a lookup
// prunes them.
func (idx *levelIndex) Ladder(instrument int) (bids, asks []FlatPriceLevel) {
	book := &idx.books[instrument]

	book.mu.Lock()
	defer book.mu.Unlock()

	return flattenLevels(book.bids.Items()), flattenLevels(book.asks.Items())
}

func flattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, len(levels))
	for i, level := range levels {
		flat[i] = FlatPriceLevel{
			PriceLevel: level.priceLevel,
			Slots:      slices.Clone(level.slots),
		}
	}
	return flat
}
