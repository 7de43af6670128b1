package amm

import (
	"fmt"
	"math/big"
)

const ratioScale = 18

// Quote describes a priced swap for display.
type Quote struct {
	AmountIn       uint64 `json:"amount_in"`
	AmountOut      uint64 `json:"amount_out"`
	FeeAmount      uint64 `json:"fee_amount"`
	SpotPrice      string `json:"spot_price"`
	ExecutionPrice string `json:"execution_price"`
	PriceImpact    string `json:"price_impact"`
}

// NewQuote prices a swap and derives spot price, execution price and price
// impact (1 - execution/spot) as decimal strings.
func NewQuote(amountIn, reserveIn, reserveOut, feeRateBps uint64) (Quote, error) {
	out, err := PriceSwap(amountIn, reserveIn, reserveOut, feeRateBps)
	if err != nil {
		return Quote{}, err
	}
	fee, err := SwapFee(amountIn, feeRateBps)
	if err != nil {
		return Quote{}, err
	}

	spot := ratio(reserveOut, reserveIn)
	exec := ratio(out, amountIn)
	impact := new(big.Rat).Quo(exec, spot)
	impact.Sub(big.NewRat(1, 1), impact)

	return Quote{
		AmountIn:       amountIn,
		AmountOut:      out,
		FeeAmount:      fee,
		SpotPrice:      spot.FloatString(ratioScale),
		ExecutionPrice: exec.FloatString(ratioScale),
		PriceImpact:    impact.FloatString(ratioScale),
	}, nil
}

// MinimumOut applies a slippage tolerance in basis points to an expected output.
func MinimumOut(amountOut, slippageBps uint64) (uint64, error) {
	if slippageBps > BpsDenominator {
		return 0, fmt.Errorf("%w: slippage %d bps", ErrInvalidCalculation, slippageBps)
	}
	return mulDiv(amountOut, BpsDenominator-slippageBps, BpsDenominator)
}

// FormatAmount renders a base-unit amount with the given decimals.
func FormatAmount(value uint64, decimals uint8) string {
	if decimals == 0 {
		return new(big.Int).SetUint64(value).String()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(new(big.Int).SetUint64(value), denom)
	return rat.FloatString(int(decimals))
}

func ratio(num, den uint64) *big.Rat {
	return new(big.Rat).SetFrac(new(big.Int).SetUint64(num), new(big.Int).SetUint64(den))
}
