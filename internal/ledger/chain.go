package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hookAMM/internal/chain"
)

// ChainBalances reads ERC20 balances from an RPC node. It cannot apply ops.
type ChainBalances struct {
	caller     chain.Caller
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewChainBalances(caller chain.Caller, maxRetries int, backoff time.Duration, logger *zap.Logger) *ChainBalances {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainBalances{
		caller:     caller,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

func (c *ChainBalances) Balance(ctx context.Context, asset, owner common.Address) (uint64, error) {
	var bal uint64
	err := chain.WithRetry(ctx, c.maxRetries, c.backoff, func(ctx context.Context) error {
		v, err := chain.BalanceOf(ctx, c.caller, asset, owner, nil)
		if err != nil {
			c.logger.Debug("balanceOf failed", zap.String("asset", asset.Hex()), zap.String("owner", owner.Hex()), zap.Error(err))
			return err
		}
		if !v.IsUint64() {
			return fmt.Errorf("balance of %s exceeds uint64: %s", owner.Hex(), v)
		}
		bal = v.Uint64()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("read balance %s/%s: %w", asset.Hex(), owner.Hex(), err)
	}
	return bal, nil
}

func (c *ChainBalances) Apply(context.Context, []Op) error {
	return ErrReadOnly
}
