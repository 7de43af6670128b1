package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hookAMM/internal/amm"
	"hookAMM/internal/config"
	"hookAMM/internal/pool"
)

type quoteView struct {
	amm.Quote
	MinimumOut uint64 `json:"minimum_out"`
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap from explicit reserves or a stored pool",
		Long: "With --reserve-in and --reserve-out the quote is computed offline. " +
			"Otherwise the pool given by --asset-a/--asset-b is read from the store " +
			"and priced against its vault balances fetched over --rpc.",
		RunE: runQuote,
	}
	cmd.Flags().Uint64("amount-in", 0, "input amount in base units")
	cmd.Flags().Uint64("reserve-in", 0, "input-side reserve (offline mode)")
	cmd.Flags().Uint64("reserve-out", 0, "output-side reserve (offline mode)")
	cmd.Flags().Uint64("fee-bps", 30, "swap fee in basis points (offline mode)")
	cmd.Flags().Uint64("slippage-bps", 50, "tolerance used for minimum_out")
	cmd.Flags().String("asset-a", "", "asset a address (live mode)")
	cmd.Flags().String("asset-b", "", "asset b address (live mode)")
	cmd.Flags().Bool("b-to-a", false, "sell asset b instead of asset a (live mode)")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	flags := cmd.Flags()
	amountIn, _ := flags.GetUint64("amount-in")
	reserveIn, _ := flags.GetUint64("reserve-in")
	reserveOut, _ := flags.GetUint64("reserve-out")
	feeBps, _ := flags.GetUint64("fee-bps")
	slippageBps, _ := flags.GetUint64("slippage-bps")

	var q amm.Quote
	if reserveIn > 0 || reserveOut > 0 {
		q, err = amm.NewQuote(amountIn, reserveIn, reserveOut, feeBps)
	} else {
		q, err = liveQuote(cmd, cfg, logger, amountIn)
	}
	if err != nil {
		return fmt.Errorf("quote [%s]: %w", amm.Code(err), err)
	}

	minOut, err := amm.MinimumOut(q.AmountOut, slippageBps)
	if err != nil {
		return err
	}
	return printJSON(quoteView{Quote: q, MinimumOut: minOut})
}

func liveQuote(cmd *cobra.Command, cfg config.Config, logger *zap.Logger, amountIn uint64) (amm.Quote, error) {
	if cfg.RPCURL == "" {
		return amm.Quote{}, fmt.Errorf("rpc url is required without --reserve-in/--reserve-out")
	}
	rawA, _ := cmd.Flags().GetString("asset-a")
	rawB, _ := cmd.Flags().GetString("asset-b")
	assetA, err := config.ParseAddress(rawA)
	if err != nil {
		return amm.Quote{}, fmt.Errorf("asset-a: %w", err)
	}
	assetB, err := config.ParseAddress(rawB)
	if err != nil {
		return amm.Quote{}, fmt.Errorf("asset-b: %w", err)
	}
	bToA, _ := cmd.Flags().GetBool("b-to-a")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg, logger)
	if err != nil {
		return amm.Quote{}, err
	}
	defer s.Close()

	head, err := s.client.Head(ctx)
	if err != nil {
		return amm.Quote{}, err
	}
	logger.Info("live quote",
		zap.String("rpc", s.client.URL()),
		zap.String("chain_id", head.ChainID.String()),
		zap.Uint64("block", head.Block),
		zap.String("asset_a", assetA.Hex()),
		zap.String("asset_b", assetB.Hex()),
		zap.Bool("b_to_a", bToA),
	)

	return s.engine.Quote(ctx, pool.Key{AssetA: assetA, AssetB: assetB}, !bToA, amountIn)
}
