package engine_test

import (
	"math/rand/v2"
	"sync"
	"testing"

	. "crossbook/internal/common"
	"crossbook/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	concurrentWorkers     = 8
	ordersPerWorker       = 300
	concurrentInstruments = 4
)

// hammer submits random orders from several goroutines and waits for all of
// them to return.
func hammer(t *testing.T, eng *engine.Engine) []uint64 {
	t.Helper()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []uint64
	)
	for w := range concurrentWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewPCG(42, uint64(w)))
			for range ordersPerWorker {
				side := Side(r.IntN(2))
				id, err := eng.Submit(side, r.IntN(concurrentInstruments), 1+r.Int64N(20), float64(90+r.IntN(20)))
				if err != nil {
					t.Errorf("submit: %v", err)
					return
				}
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return ids
}

func TestConcurrent_SerializedKeepsInvariants(t *testing.T) {
	forEachLocator(t, func(t *testing.T, locator engine.LocatorKind) {
		eng, err := engine.New(engine.Config{
			Capacity:       concurrentWorkers * ordersPerWorker,
			MaxInstruments: concurrentInstruments,
			Mode:           engine.Serialized,
			Locator:        locator,
		})
		require.NoError(t, err)
		reporter := &RecordingReporter{}
		eng.SetReporter(reporter)

		ids := hammer(t, eng)
		require.Len(t, ids, concurrentWorkers*ordersPerWorker)

		seen := make(map[uint64]struct{}, len(ids))
		for _, id := range ids {
			_, dup := seen[id]
			require.False(t, dup, "id %d handed out twice", id)
			seen[id] = struct{}{}
		}

		filled := map[uint64]int64{}
		for _, trade := range reporter.Trades() {
			sell, ok := eng.Order(trade.SellOrderID)
			require.True(t, ok)
			assert.Equal(t, sell.Price, trade.Price)
			filled[trade.BuyOrderID] += trade.Quantity
			filled[trade.SellOrderID] += trade.Quantity
		}

		for _, order := range eng.Orders() {
			assert.GreaterOrEqual(t, order.Remaining, int64(0))
			assert.Equal(t, order.Quantity-order.Remaining, filled[order.ID], "order %d", order.ID)
			assert.Equal(t, order.Remaining > 0, order.Active, "order %d", order.ID)
		}

		for instrument := range concurrentInstruments {
			assert.False(t, eng.Best(instrument).Crossed(), "instrument %d", instrument)
		}
	})
}

func TestConcurrent_RelaxedAcceptsEveryOrder(t *testing.T) {
	forEachLocator(t, func(t *testing.T, locator engine.LocatorKind) {
		eng, err := engine.New(engine.Config{
			Capacity:       concurrentWorkers * ordersPerWorker,
			MaxInstruments: concurrentInstruments,
			Mode:           engine.Relaxed,
			Locator:        locator,
		})
		require.NoError(t, err)

		ids := hammer(t, eng)
		assert.Len(t, ids, concurrentWorkers*ordersPerWorker)
		assert.Equal(t, eng.Capacity(), eng.Len())

		// Without the instrument lock quantities may overshoot, but an
		// order that has been retired stays retired.
		for _, order := range eng.Orders() {
			assert.LessOrEqual(t, order.Remaining, order.Quantity)
			if order.Remaining > 0 {
				continue
			}
			assert.False(t, order.Active, "order %d", order.ID)
		}

		_, err = eng.Submit(Buy, 0, 1, 100)
		assert.ErrorIs(t, err, engine.ErrBookFull)
	})
}

func TestConcurrent_BookFullUnderContention(t *testing.T) {
	const capacity = 100
	eng, err := engine.New(engine.Config{
		Capacity:       capacity,
		MaxInstruments: 1,
		Mode:           engine.Serialized,
		Locator:        engine.ScanLocator,
	})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		full     int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				// Only bids, so nothing ever trades.
				_, err := eng.Submit(Buy, 0, 1, 10)
				mu.Lock()
				if err == nil {
					accepted++
				} else if assert.ErrorIs(t, err, engine.ErrBookFull) {
					full++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, accepted)
	assert.Equal(t, 200-capacity, full)
	assert.Equal(t, capacity, eng.Len())
	assert.Len(t, eng.Orders(), capacity)
}
