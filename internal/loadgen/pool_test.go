package loadgen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "crossbook/internal/common"
	"crossbook/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submission struct {
	side       Side
	instrument int
	quantity   int64
	price      float64
}

type MockSubmitter struct {
	mu          sync.Mutex
	submissions []submission
	err         error
}

func (m *MockSubmitter) Submit(side Side, instrument int, quantity int64, price float64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, submission{side, instrument, quantity, price})
	return uint64(len(m.submissions)), m.err
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.OrdersPerWorker = 50
	cfg.Pause = 0
	cfg.Instruments = 8
	cfg.Seed = 7
	return cfg
}

func TestPool_SubmitsWithinRanges(t *testing.T) {
	mock := &MockSubmitter{}
	pool, err := NewPool(testConfig(), mock)
	require.NoError(t, err)

	stats, err := pool.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Submitted: 200}, stats)

	require.Len(t, mock.submissions, 200)
	for _, s := range mock.submissions {
		assert.True(t, s.side.Valid())
		assert.GreaterOrEqual(t, s.instrument, 0)
		assert.Less(t, s.instrument, 8)
		assert.GreaterOrEqual(t, s.quantity, int64(1))
		assert.LessOrEqual(t, s.quantity, int64(100))
		assert.GreaterOrEqual(t, s.price, 10.0)
		assert.Less(t, s.price, 1000.0)
	}
}

func TestPool_CountsRejections(t *testing.T) {
	mock := &MockSubmitter{err: errors.New("order book full")}
	pool, err := NewPool(testConfig(), mock)
	require.NoError(t, err)

	stats, err := pool.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Rejected: 200}, stats)
}

func TestPool_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.OrdersPerWorker = 1000
	cfg.Pause = 50 * time.Millisecond

	pool, err := NewPool(cfg, &MockSubmitter{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	stats, err := pool.Run(ctx)
	require.NoError(t, err)
	assert.Less(t, stats.Submitted, uint64(4*1000))
}

func TestPool_DrivesEngineToFullBook(t *testing.T) {
	eng, err := engine.New(engine.Config{
		Capacity:       150,
		MaxInstruments: 8,
		Mode:           engine.Serialized,
		Locator:        engine.LevelLocator,
	})
	require.NoError(t, err)

	pool, err := NewPool(testConfig(), eng)
	require.NoError(t, err)

	stats, err := pool.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(150), stats.Submitted)
	assert.Equal(t, uint64(50), stats.Rejected)
	assert.Equal(t, 150, eng.Len())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"negative orders", func(c *Config) { c.OrdersPerWorker = -1 }},
		{"negative pause", func(c *Config) { c.Pause = -time.Second }},
		{"no instruments", func(c *Config) { c.Instruments = 0 }},
		{"inverted quantity", func(c *Config) { c.MinQuantity, c.MaxQuantity = 10, 5 }},
		{"zero price", func(c *Config) { c.MinPrice = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewPool(cfg, &MockSubmitter{})
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
