package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// BpsDenominator is the basis point scale of fee rates.
	BpsDenominator uint64 = 10_000
	// MinimumLiquidity is the share amount locked by the first deposit.
	MinimumLiquidity uint64 = 1_000
)

// mulDiv returns floor(a*b/d) computed with a 256-bit intermediate.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrInvalidCalculation)
	}
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	x.Div(x, uint256.NewInt(d))
	if !x.IsUint64() {
		return 0, fmt.Errorf("%w: result overflows u64", ErrInvalidCalculation)
	}
	return x.Uint64(), nil
}

// isqrtProduct returns floor(sqrt(a*b)).
func isqrtProduct(a, b uint64) uint64 {
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return x.Sqrt(x).Uint64()
}
