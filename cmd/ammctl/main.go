package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "ammctl",
		Short:        "Hook-gated constant-product pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("store", "memory", "pool store (memory, file, pebble, postgres)")
	root.PersistentFlags().String("store-path", "", "file or pebble store path")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN")
	root.PersistentFlags().Int("cache-size", 128, "pool read cache entries, 0 disables")
	root.PersistentFlags().String("journal", "./data/events.jsonl", "event journal JSONL, empty disables")
	root.PersistentFlags().String("journal-errors", "./data/errors.jsonl", "rejected operation JSONL, empty disables")
	root.PersistentFlags().String("rpc", "", "EVM RPC URL for live balances and token metadata")
	root.PersistentFlags().Int("max-retries", 5, "maximum retry attempts")
	root.PersistentFlags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newInitPoolCmd())
	root.AddCommand(newSetWhitelistCmd())
	root.AddCommand(newSetActiveCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newQuoteCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newStatsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
