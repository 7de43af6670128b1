package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/require"

	"hookAMM/internal/chain"
)

type stubCaller struct {
	fails   int
	balance *big.Int
	calls   int
}

func (s *stubCaller) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	s.calls++
	if s.fails > 0 {
		s.fails--
		return nil, errors.New("connection reset")
	}
	parsed, err := chain.ERC20ABI()
	if err != nil {
		return nil, err
	}
	return parsed.Methods["balanceOf"].Outputs.Pack(s.balance)
}

func TestChainBalancesRetries(t *testing.T) {
	stub := &stubCaller{fails: 2, balance: big.NewInt(42)}
	c := NewChainBalances(stub, 3, time.Millisecond, nil)

	require.EqualValues(t, 42, balance(t, c, usdc, vault))
	require.Equal(t, 3, stub.calls)
}

func TestChainBalancesGivesUp(t *testing.T) {
	stub := &stubCaller{fails: 5, balance: big.NewInt(1)}
	c := NewChainBalances(stub, 1, time.Millisecond, nil)

	_, err := c.Balance(context.Background(), usdc, vault)
	require.Error(t, err)
	require.Equal(t, 2, stub.calls)
}

func TestChainBalancesRejectsWideBalance(t *testing.T) {
	wide := new(big.Int).Lsh(big.NewInt(1), 70)
	c := NewChainBalances(&stubCaller{balance: wide}, 0, time.Millisecond, nil)

	_, err := c.Balance(context.Background(), usdc, vault)
	require.ErrorContains(t, err, "exceeds uint64")
}

func TestChainBalancesIsReadOnly(t *testing.T) {
	c := NewChainBalances(&stubCaller{}, 0, 0, nil)
	require.ErrorIs(t, c.Apply(context.Background(), []Op{Mint(usdc, alice, 1)}), ErrReadOnly)
}
