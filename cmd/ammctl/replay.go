package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hookAMM/internal/config"
	"hookAMM/internal/metrics"
	"hookAMM/internal/scenario"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a YAML scenario through the engine",
		RunE:  runReplay,
	}
	cmd.Flags().String("scenario", "", "scenario YAML path")
	cmd.Flags().String("report", "", "optional JSON report path")
	cmd.Flags().Bool("metrics", false, "print engine metrics after the run")
	cmd.Flags().Uint8("max-risk-level", 3, "highest hook risk level a simulation accepts")
	return cmd
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	m := metrics.New()
	runner := scenario.NewRunner(sc, scenario.Options{
		Repo:         b.repo,
		Sink:         b.sink,
		Metrics:      m,
		Logger:       logger,
		MaxRiskLevel: cfg.MaxRiskLevel,
	})

	logger.Info("replay start",
		zap.String("scenario", sc.Name),
		zap.Int("steps", len(sc.Steps)),
		zap.String("store", cfg.Store),
		zap.String("journal", cfg.Journal),
	)
	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	b.logCache(logger)

	if cfg.Report != "" {
		if err := writeReport(cfg.Report, report); err != nil {
			return err
		}
	}
	for _, step := range report.Steps {
		if !step.Passed {
			fmt.Fprintf(os.Stderr, "step %d %s %s: %s\n", step.Index, step.Op, step.Pool, step.Detail)
		}
	}
	if cfg.Metrics {
		lines, err := m.Summary()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	}
	for _, st := range runner.Engine().AllStats() {
		logger.Info("pool stats",
			zap.String("asset_a", st.AssetA),
			zap.String("asset_b", st.AssetB),
			zap.Uint64("swaps", st.SwapCount),
			zap.Uint64("rejected", st.RejectedCount),
			zap.String("volume_a", st.VolumeA),
			zap.String("volume_b", st.VolumeB),
		)
	}

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d steps failed", report.Failed, len(report.Steps))
	}
	return nil
}

func writeReport(path string, report scenario.Report) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write report tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}
	return nil
}
