package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"crossbook/internal/common"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrInvalidOrder = errors.New("invalid order")

// This is the main matching engine.
//
// All instruments share one store. Submissions on any number of goroutines
// are accepted without a global lock; see Mode for how match passes on the
// same instrument are ordered.
type Engine struct {
	cfg      Config
	store    *Store
	seq      *Sequencer
	locator  Locator
	reporter common.Reporter
	logger   zerolog.Logger
	now      func() time.Time

	// One lock per instrument, nil in Relaxed mode.
	locks []sync.Mutex
}

type Option func(*Engine)

// WithLogger sets the logger used for rejected submissions.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSequencer replaces the engine's id source.
func WithSequencer(seq *Sequencer) Option {
	return func(e *Engine) { e.seq = seq }
}

// WithClock overrides the clock stamped on events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		cfg:      cfg,
		store:    NewStore(cfg.Capacity),
		seq:      NewSequencer(0),
		reporter: common.NopReporter{},
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}

	switch cfg.Locator {
	case ScanLocator:
		engine.locator = newScanLocator(engine.store)
	case LevelLocator:
		engine.locator = newLevelIndex(engine.store, cfg.MaxInstruments)
	}
	if cfg.Mode == Serialized {
		engine.locks = make([]sync.Mutex, cfg.MaxInstruments)
	}

	return engine, nil
}

// SetReporter installs the event sink. It must be called before the engine
// is shared between goroutines.
func (engine *Engine) SetReporter(reporter common.Reporter) {
	if reporter == nil {
		reporter = common.NopReporter{}
	}
	engine.reporter = reporter
}

// Submit books a new limit order and matches its instrument before
// returning. On return every cross available for the instrument at that
// instant has been executed, though submissions racing in on other
// goroutines may have added liquidity since.
//
// A full store yields ErrBookFull and leaves no trace of the order.
func (engine *Engine) Submit(side common.Side, instrument int, quantity int64, price float64) (uint64, error) {
	if err := engine.validate(side, instrument, quantity, price); err != nil {
		engine.logger.Debug().
			Err(err).
			Stringer("side", side).
			Int("instrument", instrument).
			Int64("quantity", quantity).
			Float64("price", price).
			Msg("order rejected")
		return 0, err
	}

	slot, err := engine.store.reserve()
	if err != nil {
		engine.logger.Warn().
			Err(err).
			Int("capacity", engine.store.Capacity()).
			Msg("cannot add new order")
		return 0, err
	}

	o := engine.store.at(slot)
	o.id = engine.seq.Next()
	o.side = side
	o.instrument = instrument
	o.price = price
	o.quantity = quantity
	o.remaining.Store(quantity)
	engine.store.publish(slot)
	engine.locator.Track(slot)

	engine.reporter.ReportAccepted(common.OrderAccepted{
		ID:         o.id,
		Side:       side,
		Instrument: instrument,
		Quantity:   quantity,
		Price:      price,
		Time:       engine.now(),
	})

	engine.Match(instrument)
	return o.id, nil
}

// Match executes trades for an instrument while its best bid meets its best
// ask and returns how many trades it executed. Every trade is priced at the
// sell order's limit, whichever side arrived last.
func (engine *Engine) Match(instrument int) int {
	if instrument < 0 || instrument >= engine.cfg.MaxInstruments {
		return 0
	}
	if engine.locks != nil {
		mu := &engine.locks[instrument]
		mu.Lock()
		defer mu.Unlock()
	}

	trades := 0
	for best := engine.locator.Locate(instrument); best.Crossed(); best = engine.locator.Locate(instrument) {
		buy := engine.store.at(best.BuySlot)
		sell := engine.store.at(best.SellSlot)

		// Either side may have been drained by a racing pass since it was
		// located. Nothing more to cross on this pass.
		buyQty, sellQty := buy.remaining.Load(), sell.remaining.Load()
		if buyQty <= 0 || sellQty <= 0 {
			break
		}

		matchQty := min(buyQty, sellQty)
		buy.remaining.Add(-matchQty)
		sell.remaining.Add(-matchQty)

		engine.trade(buy, sell, matchQty)

		buy.retireIfFilled()
		sell.retireIfFilled()
		trades++
	}
	return trades
}

// trade fires the execution report for a matched pair.
func (engine *Engine) trade(buy, sell *order, quantity int64) {
	engine.reporter.ReportTrade(common.TradeExecuted{
		ID:          uuid.New(),
		Instrument:  sell.instrument,
		Quantity:    quantity,
		Price:       sell.price,
		BuyOrderID:  buy.id,
		SellOrderID: sell.id,
		Time:        engine.now(),
	})
}

func (engine *Engine) validate(side common.Side, instrument int, quantity int64, price float64) error {
	switch {
	case !side.Valid():
		return fmt.Errorf("%w: unknown side %v", ErrInvalidOrder, side)
	case instrument < 0 || instrument >= engine.cfg.MaxInstruments:
		return fmt.Errorf("%w: instrument %d outside [0, %d)", ErrInvalidOrder, instrument, engine.cfg.MaxInstruments)
	case quantity <= 0:
		return fmt.Errorf("%w: quantity %d must be positive", ErrInvalidOrder, quantity)
	case math.IsNaN(price) || math.IsInf(price, 0) || price <= 0:
		return fmt.Errorf("%w: price %g must be positive and finite", ErrInvalidOrder, price)
	}
	return nil
}

// ---- Inspection ----

func (engine *Engine) Config() Config { return engine.cfg }

// Len is the number of orders the store has accepted so far.
func (engine *Engine) Len() int { return engine.store.Len() }

func (engine *Engine) Capacity() int { return engine.store.Capacity() }

// Best returns the current top of book for an instrument.
func (engine *Engine) Best(instrument int) Best {
	if instrument < 0 || instrument >= engine.cfg.MaxInstruments {
		return emptyBest()
	}
	return engine.locator.Locate(instrument)
}

// Orders returns a copy of every published order, in slot order.
func (engine *Engine) Orders() []OrderView {
	n := engine.store.Len()
	views := make([]OrderView, 0, n)
	for slot := 0; slot < n; slot++ {
		if view, ok := engine.store.View(slot); ok {
			views = append(views, view)
		}
	}
	return views
}

// Order looks an order up by id. This walks the store.
func (engine *Engine) Order(id uint64) (OrderView, bool) {
	n := engine.store.Len()
	for slot := 0; slot < n; slot++ {
		view, ok := engine.store.View(slot)
		if ok && view.ID == id {
			return view, true
		}
	}
	return OrderView{}, false
}

// Ladder returns an instrument's price levels when the engine runs with the
// level locator.
func (engine *Engine) Ladder(instrument int) (bids, asks []FlatPriceLevel, ok bool) {
	idx, isLevels := engine.locator.(*levelIndex)
	if !isLevels || instrument < 0 || instrument >= engine.cfg.MaxInstruments {
		return nil, nil, false
	}
	bids, asks = idx.Ladder(instrument)
	return bids, asks, true
}
