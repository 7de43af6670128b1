package amm

import (
	"errors"
	"math/big"
	"testing"

	"pgregory.net/rapid"
)

const maxDraw = 1 << 48

func TestPriceSwapOutputBelowReserveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rIn := rapid.Uint64Range(1, maxDraw).Draw(t, "reserveIn")
		rOut := rapid.Uint64Range(1, maxDraw).Draw(t, "reserveOut")
		fee := rapid.Uint64Range(0, BpsDenominator).Draw(t, "fee")
		in := rapid.Uint64Range(1, maxDraw).Draw(t, "amountIn")

		out, err := PriceSwap(in, rIn, rOut, fee)
		if err != nil {
			if !errors.Is(err, ErrInvalidCalculation) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		if out >= rOut {
			t.Fatalf("output %d not below reserve %d", out, rOut)
		}
	})
}

func TestPriceSwapMonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rIn := rapid.Uint64Range(1, maxDraw).Draw(t, "reserveIn")
		rOut := rapid.Uint64Range(1, maxDraw).Draw(t, "reserveOut")
		fee := rapid.Uint64Range(0, BpsDenominator).Draw(t, "fee")
		small := rapid.Uint64Range(1, maxDraw).Draw(t, "small")
		large := rapid.Uint64Range(small, maxDraw).Draw(t, "large")

		outSmall, errSmall := PriceSwap(small, rIn, rOut, fee)
		outLarge, errLarge := PriceSwap(large, rIn, rOut, fee)
		if errSmall != nil {
			return
		}
		if errLarge != nil {
			t.Fatalf("larger input failed after smaller succeeded: %v", errLarge)
		}
		if outLarge < outSmall {
			t.Fatalf("output decreased: %d -> %d", outSmall, outLarge)
		}
	})
}

func TestPriceSwapConstantProductProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rIn := rapid.Uint64Range(1, maxDraw).Draw(t, "reserveIn")
		rOut := rapid.Uint64Range(1, maxDraw).Draw(t, "reserveOut")
		fee := rapid.Uint64Range(0, BpsDenominator).Draw(t, "fee")
		in := rapid.Uint64Range(1, maxDraw).Draw(t, "amountIn")

		out, err := PriceSwap(in, rIn, rOut, fee)
		if err != nil {
			return
		}

		before := new(big.Int).Mul(new(big.Int).SetUint64(rIn), new(big.Int).SetUint64(rOut))
		afterIn := new(big.Int).Add(new(big.Int).SetUint64(rIn), new(big.Int).SetUint64(in))
		afterOut := new(big.Int).SetUint64(rOut - out)
		after := new(big.Int).Mul(afterIn, afterOut)
		if after.Cmp(before) < 0 {
			t.Fatalf("product decreased: %s -> %s", before, after)
		}
	})
}

func TestDepositRedeemRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seedA := rapid.Uint64Range(2_000, maxDraw).Draw(t, "seedA")
		seedB := rapid.Uint64Range(2_000, maxDraw).Draw(t, "seedB")
		a := rapid.Uint64Range(1, maxDraw).Draw(t, "amountA")
		b := rapid.Uint64Range(1, maxDraw).Draw(t, "amountB")

		reserveA, reserveB := seedA, seedB
		supply := InitialShareSupply(seedA, seedB)
		if supply <= MinimumLiquidity {
			return
		}

		shares, err := IssueShares(a, b, reserveA, reserveB, supply)
		if err != nil {
			return
		}
		reserveA += a
		reserveB += b
		supply += shares

		gotA, gotB, err := RedeemShares(shares, reserveA, reserveB, supply)
		if err != nil {
			t.Fatalf("redeem: %v", err)
		}
		if gotA > a || gotB > b {
			t.Fatalf("round trip minted value: deposited (%d,%d) redeemed (%d,%d)", a, b, gotA, gotB)
		}
	})
}

func TestFirstDepositRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64Range(1, maxDraw).Draw(t, "amountA")
		b := rapid.Uint64Range(1, maxDraw).Draw(t, "amountB")

		shares, err := IssueShares(a, b, 0, 0, 0)
		if err != nil {
			return
		}
		supply := InitialShareSupply(a, b)
		gotA, gotB, err := RedeemShares(shares, a, b, supply)
		if err != nil {
			t.Fatalf("redeem: %v", err)
		}
		if gotA >= a || gotB >= b {
			t.Fatalf("locked liquidity was redeemable: (%d,%d) from (%d,%d)", gotA, gotB, a, b)
		}
	})
}

func TestRedeemAboveSupplyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		supply := rapid.Uint64Range(0, maxDraw).Draw(t, "supply")
		lp := rapid.Uint64Range(supply+1, maxDraw+1).Draw(t, "lp")
		_, _, err := RedeemShares(lp, 1_000, 1_000, supply)
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("expected insufficient balance, got %v", err)
		}
	})
}
