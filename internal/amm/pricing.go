package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// PriceSwap returns the output of swapping amountIn against the given
// reserves. The fee is taken from the input before the constant-product
// identity is applied, and every intermediate is 256 bits wide.
func PriceSwap(amountIn, reserveIn, reserveOut, feeRateBps uint64) (uint64, error) {
	if amountIn == 0 {
		return 0, fmt.Errorf("%w: amount in must be positive", ErrInvalidCalculation)
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("%w: empty reserve", ErrInsufficientLiquidity)
	}
	if feeRateBps > BpsDenominator {
		return 0, fmt.Errorf("%w: %d bps", ErrInvalidFeeRate, feeRateBps)
	}

	net, err := mulDiv(amountIn, BpsDenominator-feeRateBps, BpsDenominator)
	if err != nil {
		return 0, err
	}

	num := new(uint256.Int).Mul(uint256.NewInt(reserveOut), uint256.NewInt(net))
	den := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(net))
	out := num.Div(num, den).Uint64()

	if out == 0 {
		return 0, fmt.Errorf("%w: output rounds to zero", ErrInvalidCalculation)
	}
	if out >= reserveOut {
		return 0, fmt.Errorf("%w: swap would drain output reserve", ErrInsufficientLiquidity)
	}
	return out, nil
}

// SwapFee is the part of amountIn retained by the pool.
func SwapFee(amountIn, feeRateBps uint64) (uint64, error) {
	if feeRateBps > BpsDenominator {
		return 0, fmt.Errorf("%w: %d bps", ErrInvalidFeeRate, feeRateBps)
	}
	net, err := mulDiv(amountIn, BpsDenominator-feeRateBps, BpsDenominator)
	if err != nil {
		return 0, err
	}
	return amountIn - net, nil
}

// CheckSlippage fails when got is below the caller's floor.
func CheckSlippage(got, floor uint64) error {
	if got < floor {
		return fmt.Errorf("%w: expected at least %d, got %d", ErrSlippageExceeded, floor, got)
	}
	return nil
}
