// Package loadgen drives an engine with random orders from several
// goroutines at once.
package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"crossbook/internal/common"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

var ErrInvalidConfig = errors.New("invalid load generator config")

// Submitter is the ingestion side of an engine.
type Submitter interface {
	Submit(side common.Side, instrument int, quantity int64, price float64) (uint64, error)
}

type Config struct {
	Workers         int           // Number of concurrent submitters
	OrdersPerWorker int           // Orders each worker submits before exiting
	Pause           time.Duration // Sleep between two submissions of one worker
	Instruments     int           // Instruments are drawn from [0, Instruments)
	MinQuantity     int64
	MaxQuantity     int64
	MinPrice        float64
	MaxPrice        float64
	Seed            uint64 // Zero seeds from the clock
}

func DefaultConfig() Config {
	return Config{
		Workers:         6,
		OrdersPerWorker: 500,
		Pause:           10 * time.Millisecond,
		Instruments:     1024,
		MinQuantity:     1,
		MaxQuantity:     100,
		MinPrice:        10,
		MaxPrice:        1000,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers %d must be positive", ErrInvalidConfig, c.Workers)
	case c.OrdersPerWorker < 0:
		return fmt.Errorf("%w: orders per worker %d must not be negative", ErrInvalidConfig, c.OrdersPerWorker)
	case c.Pause < 0:
		return fmt.Errorf("%w: pause %v must not be negative", ErrInvalidConfig, c.Pause)
	case c.Instruments <= 0:
		return fmt.Errorf("%w: instruments %d must be positive", ErrInvalidConfig, c.Instruments)
	case c.MinQuantity <= 0 || c.MaxQuantity < c.MinQuantity:
		return fmt.Errorf("%w: quantity range [%d, %d]", ErrInvalidConfig, c.MinQuantity, c.MaxQuantity)
	case c.MinPrice <= 0 || c.MaxPrice < c.MinPrice:
		return fmt.Errorf("%w: price range [%g, %g)", ErrInvalidConfig, c.MinPrice, c.MaxPrice)
	}
	return nil
}

// Stats summarises a run.
type Stats struct {
	Submitted uint64 // Orders accepted by the engine
	Rejected  uint64 // Orders the engine refused, e.g. a full book
}

// Pool is a fixed set of workers submitting random orders.
type Pool struct {
	cfg       Config
	submitter Submitter
	submitted atomic.Uint64
	rejected  atomic.Uint64
}

func NewPool(cfg Config, submitter Submitter) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return &Pool{cfg: cfg, submitter: submitter}, nil
}

// Run starts every worker and blocks until they have all finished or the
// context is cancelled.
func (pool *Pool) Run(ctx context.Context) (Stats, error) {
	t, _ := tomb.WithContext(ctx)

	// Workers are started from a tracked goroutine so the tomb cannot
	// finish while some are still being spawned.
	t.Go(func() error {
		for id := range pool.cfg.Workers {
			t.Go(func() error {
				return pool.worker(t, id)
			})
		}
		return nil
	})

	err := t.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return pool.Stats(), err
}

func (pool *Pool) Stats() Stats {
	return Stats{
		Submitted: pool.submitted.Load(),
		Rejected:  pool.rejected.Load(),
	}
}

// Workers submit their quota of orders and exit early once the tomb dies.
func (pool *Pool) worker(t *tomb.Tomb, id int) error {
	r := rand.New(rand.NewPCG(pool.cfg.Seed, uint64(id)))

	for i := 0; i < pool.cfg.OrdersPerWorker; i++ {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		side := common.Buy
		if r.IntN(2) == 1 {
			side = common.Sell
		}
		instrument := r.IntN(pool.cfg.Instruments)
		quantity := pool.cfg.MinQuantity + r.Int64N(pool.cfg.MaxQuantity-pool.cfg.MinQuantity+1)
		price := pool.cfg.MinPrice + r.Float64()*(pool.cfg.MaxPrice-pool.cfg.MinPrice)

		if _, err := pool.submitter.Submit(side, instrument, quantity, price); err != nil {
			pool.rejected.Add(1)
			log.Debug().Err(err).Int("worker", id).Msg("order rejected")
		} else {
			pool.submitted.Add(1)
		}

		if pool.cfg.Pause > 0 {
			select {
			case <-t.Dying():
				return nil
			case <-time.After(pool.cfg.Pause):
			}
		}
	}
	return nil
}
