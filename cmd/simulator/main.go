package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crossbook/internal/common"
	"crossbook/internal/config"
	"crossbook/internal/engine"
	"crossbook/internal/loadgen"
	"crossbook/internal/report"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	root := &cobra.Command{
		Use:          "crossbook",
		Short:        "In-process continuous double auction matching core",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (yaml, toml or json)")
	root.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "console", "Log format: console or json")
	mustBind(v, "log.level", root.PersistentFlags().Lookup("log-level"))
	mustBind(v, "log.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(newSimulateCmd(v, &configFile))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the crossbook version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crossbook %s\n", version)
		},
	})
	return root
}

func newSimulateCmd(v *viper.Viper, configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Submit random orders from concurrent workers and report the trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}
			setupLogging(cfg.Log, cmd.ErrOrStderr())
			return simulate(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.Int("capacity", engine.DefaultCapacity, "Maximum number of orders the book accepts")
	flags.Int("instruments", engine.DefaultMaxInstruments, "Number of tradable instruments")
	flags.String("mode", engine.Serialized.String(), "Consistency mode: serialized or relaxed")
	flags.String("locator", engine.ScanLocator.String(), "Best price locator: scan or levels")
	flags.Int("workers", 6, "Number of concurrent submitters")
	flags.Int("orders", 500, "Orders submitted by each worker")
	flags.Duration("pause", 10*time.Millisecond, "Pause between two submissions of a worker")
	flags.Uint64("seed", 0, "Random seed, 0 seeds from the clock")

	mustBind(v, "engine.capacity", flags.Lookup("capacity"))
	mustBind(v, "engine.instruments", flags.Lookup("instruments"))
	mustBind(v, "engine.mode", flags.Lookup("mode"))
	mustBind(v, "engine.locator", flags.Lookup("locator"))
	mustBind(v, "load.workers", flags.Lookup("workers"))
	mustBind(v, "load.orders", flags.Lookup("orders"))
	mustBind(v, "load.pause", flags.Lookup("pause"))
	mustBind(v, "load.seed", flags.Lookup("seed"))

	return cmd
}

func simulate(ctx context.Context, cfg config.Config) error {
	engCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	eng, err := engine.New(engCfg, engine.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics, err := report.NewMetrics(registry)
	if err != nil {
		return err
	}
	eng.SetReporter(common.Reporters{
		report.NewLogReporter(log.Logger),
		metrics,
	})

	pool, err := loadgen.NewPool(cfg.LoadgenConfig(), eng)
	if err != nil {
		return err
	}

	log.Info().
		Int("capacity", engCfg.Capacity).
		Int("instruments", engCfg.MaxInstruments).
		Stringer("mode", engCfg.Mode).
		Stringer("locator", engCfg.Locator).
		Int("workers", cfg.Load.Workers).
		Msg("simulation starting")

	start := time.Now()
	stats, err := pool.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("simulation failed")
		return err
	}

	log.Info().
		Uint64("submitted", stats.Submitted).
		Uint64("rejected", stats.Rejected).
		Int("book", eng.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("simulation finished")
	return report.LogMetrics(log.Logger, registry)
}

// setupLogging points the global logger at w. Engine events arrive from every
// worker, so writes are serialized line by line.
func setupLogging(cfg config.LogConfig, w io.Writer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := zerolog.SyncWriter(w)
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
