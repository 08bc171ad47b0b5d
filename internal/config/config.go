// Package config loads crossbook settings from defaults, an optional file,
// CROSSBOOK_ prefixed environment variables and bound command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"crossbook/internal/engine"
	"crossbook/internal/loadgen"

	"github.com/spf13/viper"
)

const EnvPrefix = "CROSSBOOK"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	Load   LoadConfig   `mapstructure:"load"`
	Log    LogConfig    `mapstructure:"log"`
}

type EngineConfig struct {
	Capacity    int    `mapstructure:"capacity"`
	Instruments int    `mapstructure:"instruments"`
	Mode        string `mapstructure:"mode"`
	Locator     string `mapstructure:"locator"`
}

type LoadConfig struct {
	Workers     int           `mapstructure:"workers"`
	Orders      int           `mapstructure:"orders"`
	Pause       time.Duration `mapstructure:"pause"`
	MinQuantity int64         `mapstructure:"min_quantity"`
	MaxQuantity int64         `mapstructure:"max_quantity"`
	MinPrice    float64       `mapstructure:"min_price"`
	MaxPrice    float64       `mapstructure:"max_price"`
	Seed        uint64        `mapstructure:"seed"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// SetDefaults registers every key so that environment variables are picked
// up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	eng := engine.DefaultConfig()
	v.SetDefault("engine.capacity", eng.Capacity)
	v.SetDefault("engine.instruments", eng.MaxInstruments)
	v.SetDefault("engine.mode", eng.Mode.String())
	v.SetDefault("engine.locator", eng.Locator.String())

	load := loadgen.DefaultConfig()
	v.SetDefault("load.workers", load.Workers)
	v.SetDefault("load.orders", load.OrdersPerWorker)
	v.SetDefault("load.pause", load.Pause)
	v.SetDefault("load.min_quantity", load.MinQuantity)
	v.SetDefault("load.max_quantity", load.MaxQuantity)
	v.SetDefault("load.min_price", load.MinPrice)
	v.SetDefault("load.max_price", load.MaxPrice)
	v.SetDefault("load.seed", load.Seed)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the configuration held by v. If file is not empty it is read
// first; a missing file is an error.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := cfg.EngineConfig(); err != nil {
		return Config{}, err
	}
	if err := cfg.LoadgenConfig().Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return Config{}, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, cfg.Log.Format)
	}
	return cfg, nil
}

// EngineConfig converts the engine section into an engine.Config.
func (c Config) EngineConfig() (engine.Config, error) {
	mode, err := engine.ParseMode(c.Engine.Mode)
	if err != nil {
		return engine.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	locator, err := engine.ParseLocator(c.Engine.Locator)
	if err != nil {
		return engine.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := engine.Config{
		Capacity:       c.Engine.Capacity,
		MaxInstruments: c.Engine.Instruments,
		Mode:           mode,
		Locator:        locator,
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadgenConfig converts the load section. Orders are spread over every
// instrument the engine accepts.
func (c Config) LoadgenConfig() loadgen.Config {
	return loadgen.Config{
		Workers:         c.Load.Workers,
		OrdersPerWorker: c.Load.Orders,
		Pause:           c.Load.Pause,
		Instruments:     c.Engine.Instruments,
		MinQuantity:     c.Load.MinQuantity,
		MaxQuantity:     c.Load.MaxQuantity,
		MinPrice:        c.Load.MinPrice,
		MaxPrice:        c.Load.MaxPrice,
		Seed:            c.Load.Seed,
	}
}
