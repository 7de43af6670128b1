package amm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceSwapReferencePool(t *testing.T) {
	out, err := PriceSwap(10_000, 1_000_000, 1_000_000, 30)
	require.NoError(t, err)
	// floor(1_000_000 * 9970 / 1_009_970)
	require.Equal(t, uint64(9871), out)
}

func TestPriceSwapZeroFee(t *testing.T) {
	out, err := PriceSwap(1_000, 1_000, 1_000, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(500), out)
}

func TestPriceSwapErrors(t *testing.T) {
	cases := []struct {
		name                     string
		amountIn, rIn, rOut, fee uint64
		want                     error
	}{
		{"zero amount", 0, 100, 100, 30, ErrInvalidCalculation},
		{"empty reserve in", 10, 0, 100, 30, ErrInsufficientLiquidity},
		{"empty reserve out", 10, 100, 0, 30, ErrInsufficientLiquidity},
		{"fee above 100%", 10, 100, 100, 10_001, ErrInvalidFeeRate},
		{"full fee", 1_000, 100, 100, 10_000, ErrInvalidCalculation},
		{"output rounds to zero", 1, 1_000_000, 10, 0, ErrInvalidCalculation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PriceSwap(tc.amountIn, tc.rIn, tc.rOut, tc.fee)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPriceSwapFullInputDomain(t *testing.T) {
	out, err := PriceSwap(math.MaxUint64, math.MaxUint64, math.MaxUint64, 30)
	require.NoError(t, err)
	require.Less(t, out, uint64(math.MaxUint64))
	require.Greater(t, out, uint64(math.MaxUint64/3))
}

func TestPriceSwapNeverDrainsTinyReserve(t *testing.T) {
	out, err := PriceSwap(math.MaxUint64, 1, 2, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), out)
}

func TestSwapFee(t *testing.T) {
	fee, err := SwapFee(10_000, 30)
	require.NoError(t, err)
	require.Equal(t, uint64(30), fee)

	fee, err = SwapFee(333, 30)
	require.NoError(t, err)
	// net = floor(333*9970/10000) = 332
	require.Equal(t, uint64(1), fee)
}

func TestCheckSlippage(t *testing.T) {
	require.NoError(t, CheckSlippage(10, 10))
	err := CheckSlippage(9, 10)
	require.True(t, errors.Is(err, ErrSlippageExceeded))
}

func TestNewQuote(t *testing.T) {
	q, err := NewQuote(10_000, 1_000_000, 1_000_000, 30)
	require.NoError(t, err)
	require.Equal(t, uint64(9871), q.AmountOut)
	require.Equal(t, uint64(30), q.FeeAmount)
	require.Equal(t, "1.000000000000000000", q.SpotPrice)
	require.Equal(t, "0.987100000000000000", q.ExecutionPrice)
	require.Equal(t, "0.012900000000000000", q.PriceImpact)
}

func TestMinimumOut(t *testing.T) {
	got, err := MinimumOut(9871, 50)
	require.NoError(t, err)
	// floor(9871 * 9950 / 10000)
	require.Equal(t, uint64(9821), got)

	_, err = MinimumOut(1, 10_001)
	require.ErrorIs(t, err, ErrInvalidCalculation)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "1.500000", FormatAmount(1_500_000, 6))
	require.Equal(t, "42", FormatAmount(42, 0))
}

func TestCode(t *testing.T) {
	require.Equal(t, "", Code(nil))
	require.Equal(t, "PoolInactive", Code(ErrPoolInactive))
	require.True(t, errors.Is(ErrPoolInactive, ErrInvalidCalculation))
	require.Equal(t, "SlippageExceeded", Code(CheckSlippage(1, 2)))
	require.Equal(t, "Internal", Code(errors.New("boom")))
}
