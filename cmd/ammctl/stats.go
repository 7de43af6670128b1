package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hookAMM/internal/aggregate"
	"hookAMM/internal/chain"
	"hookAMM/internal/config"
	"hookAMM/internal/ledger"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate the event journal into per-pool totals",
		RunE:  runStats,
	}
	cmd.Flags().String("since", "", "ignore records before this time (unix seconds or RFC3339)")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStats(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Journal == "" {
		return fmt.Errorf("journal path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// token decimals come from the chain when available
	assets := ledger.NewAssetRegistry()
	decimals := func(asset string) uint8 { return assets.Decimals(common.HexToAddress(asset)) }
	if cfg.RPCURL != "" {
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer client.Close()
		decimals = func(asset string) uint8 {
			meta, err := assets.Load(ctx, client, common.HexToAddress(asset), logger)
			if err != nil {
				logger.Warn("token decimals unavailable", zap.String("asset", asset), zap.Error(err))
				return 0
			}
			return meta.Decimals
		}
	}

	stats, err := aggregate.NewAggregator(decimals, logger).Since(cfg.Since).Run(ctx, cfg.Journal, cfg.JournalErrors)
	if err != nil {
		return err
	}
	return printJSON(stats)
}
