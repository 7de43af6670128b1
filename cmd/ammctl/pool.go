package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hookAMM/internal/amm"
	"hookAMM/internal/chain"
	"hookAMM/internal/config"
	"hookAMM/internal/engine"
	"hookAMM/internal/ledger"
	"hookAMM/internal/model"
	"hookAMM/internal/pool"
)

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("asset-a", "", "asset a address")
	cmd.Flags().String("asset-b", "", "asset b address")
	cmd.Flags().String("caller", "", "caller address (pool authority for admin commands)")
}

// poolSession is an engine over the configured store. With an RPC URL the
// reserves are the on-chain vault balances; otherwise an empty in-memory
// ledger is used.
type poolSession struct {
	engine  *engine.Engine
	backend *backend
	client  *chain.Client
	logger  *zap.Logger
}

func openSession(ctx context.Context, cfg config.Config, logger *zap.Logger) (*poolSession, error) {
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s := &poolSession{backend: b, logger: logger}

	var ldg ledger.Ledger = ledger.NewMemory()
	if cfg.RPCURL != "" {
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		s.client = client
		ldg = ledger.NewChainBalances(client, cfg.MaxRetries, cfg.RetryBackoff, logger)
	}
	s.engine = engine.New(b.repo, ldg, engine.Options{Sink: b.sink, Logger: logger})
	return s, nil
}

func (s *poolSession) Close() {
	s.backend.logCache(s.logger)
	if s.client != nil {
		s.client.Close()
	}
	s.backend.Close()
}

// loadMeta caches token metadata for the pool assets when an RPC is available.
func (s *poolSession) loadMeta(ctx context.Context, key pool.Key) {
	if s.client == nil {
		return
	}
	for _, asset := range []common.Address{key.AssetA, key.AssetB} {
		if _, err := s.engine.Assets().Load(ctx, s.client, asset, s.logger); err != nil {
			s.logger.Warn("asset metadata unavailable", zap.String("asset", asset.Hex()), zap.Error(err))
		}
	}
}

func loadPoolCommand(cmd *cobra.Command, needCaller bool) (config.PoolConfig, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPool(cfgFile, cmd.Flags())
	if err != nil {
		return config.PoolConfig{}, nil, err
	}
	if needCaller && cfg.Caller == (common.Address{}) {
		return config.PoolConfig{}, nil, fmt.Errorf("caller is required")
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.PoolConfig{}, nil, err
	}
	return cfg, logger, nil
}

func newInitPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-pool",
		Short: "Create a pool for an ordered asset pair",
		RunE:  runInitPool,
	}
	addPoolFlags(cmd)
	cmd.Flags().String("vault-a", "", "vault holding asset a")
	cmd.Flags().String("vault-b", "", "vault holding asset b")
	cmd.Flags().String("share-asset", "", "LP share asset address")
	cmd.Flags().Uint64("fee-bps", 30, "swap fee in basis points")
	cmd.Flags().StringSlice("whitelist", nil, "trusted hook authorizers (comma-separated)")
	return cmd
}

func runInitPool(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadPoolCommand(cmd, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.engine.InitializePool(ctx, pool.Params{
		Authority:     cfg.Caller,
		AssetA:        cfg.AssetA,
		AssetB:        cfg.AssetB,
		VaultA:        cfg.VaultA,
		VaultB:        cfg.VaultB,
		ShareAsset:    cfg.ShareAsset,
		FeeRateBps:    cfg.FeeBps,
		HookWhitelist: cfg.Whitelist,
	})
	if err != nil {
		return fmt.Errorf("init pool [%s]: %w", amm.Code(err), err)
	}
	return printJSON(st.Record())
}

func newSetWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-whitelist",
		Short: "Replace the trusted hook authorizers of a pool",
		RunE:  runSetWhitelist,
	}
	addPoolFlags(cmd)
	cmd.Flags().StringSlice("whitelist", nil, "trusted hook authorizers (comma-separated)")
	return cmd
}

func runSetWhitelist(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadPoolCommand(cmd, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	key := pool.Key{AssetA: cfg.AssetA, AssetB: cfg.AssetB}
	if err := s.engine.SetWhitelist(ctx, key, cfg.Caller, cfg.Whitelist); err != nil {
		return fmt.Errorf("set whitelist [%s]: %w", amm.Code(err), err)
	}
	return nil
}

func newSetActiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-active",
		Short: "Enable or disable swaps and liquidity changes on a pool",
		RunE:  runSetActive,
	}
	addPoolFlags(cmd)
	cmd.Flags().Bool("active", true, "whether the pool accepts operations")
	return cmd
}

func runSetActive(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadPoolCommand(cmd, true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	active, _ := cmd.Flags().GetBool("active")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	key := pool.Key{AssetA: cfg.AssetA, AssetB: cfg.AssetB}
	if err := s.engine.SetActive(ctx, key, cfg.Caller, active); err != nil {
		return fmt.Errorf("set active [%s]: %w", amm.Code(err), err)
	}
	return nil
}

// poolView is the show output: the stored record plus live reserves.
type poolView struct {
	Pool     model.PoolRecord `json:"pool"`
	ReserveA string           `json:"reserve_a"`
	ReserveB string           `json:"reserve_b"`
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a pool record and its reserves",
		RunE:  runShow,
	}
	addPoolFlags(cmd)
	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadPoolCommand(cmd, false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	key := pool.Key{AssetA: cfg.AssetA, AssetB: cfg.AssetB}
	st, err := s.engine.Pool(ctx, key)
	if err != nil {
		return err
	}
	s.loadMeta(ctx, key)
	reserveA, reserveB, err := s.engine.Reserves(ctx, key)
	if err != nil {
		return err
	}
	assets := s.engine.Assets()
	return printJSON(poolView{
		Pool:     st.Record(),
		ReserveA: amm.FormatAmount(reserveA, assets.Decimals(key.AssetA)),
		ReserveB: amm.FormatAmount(reserveB, assets.Decimals(key.AssetB)),
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
