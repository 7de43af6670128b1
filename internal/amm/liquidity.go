package amm

import "fmt"

// IssueShares returns the LP shares minted to a depositor of amountA and
// amountB into a pool holding reserveA/reserveB with shareSupply outstanding.
//
// The first deposit mints floor(sqrt(a*b)) less MinimumLiquidity. Later
// deposits mint the smaller of the two proportional amounts; the excess of
// the other leg stays in the pool.
func IssueShares(amountA, amountB, reserveA, reserveB, shareSupply uint64) (uint64, error) {
	if amountA == 0 || amountB == 0 {
		return 0, fmt.Errorf("%w: deposit amounts must be positive", ErrInvalidCalculation)
	}

	if shareSupply == 0 {
		shares := isqrtProduct(amountA, amountB)
		if shares <= MinimumLiquidity {
			return 0, fmt.Errorf("%w: initial liquidity %d below minimum %d", ErrInvalidCalculation, shares, MinimumLiquidity)
		}
		return shares - MinimumLiquidity, nil
	}

	if reserveA == 0 || reserveB == 0 {
		return 0, fmt.Errorf("%w: pool has shares but an empty reserve", ErrInsufficientLiquidity)
	}

	fromA, err := mulDiv(amountA, shareSupply, reserveA)
	if err != nil {
		return 0, err
	}
	fromB, err := mulDiv(amountB, shareSupply, reserveB)
	if err != nil {
		return 0, err
	}

	shares := min(fromA, fromB)
	if shares == 0 {
		return 0, fmt.Errorf("%w: deposit rounds to zero shares", ErrInvalidCalculation)
	}
	return shares, nil
}

// InitialShareSupply is the supply committed by a first deposit, including
// the locked MinimumLiquidity.
func InitialShareSupply(amountA, amountB uint64) uint64 {
	return isqrtProduct(amountA, amountB)
}

// RedeemShares returns the reserves paid out for burning lpAmount shares.
// Both sides use the same floor division as issuance.
func RedeemShares(lpAmount, reserveA, reserveB, shareSupply uint64) (uint64, uint64, error) {
	if lpAmount == 0 {
		return 0, 0, fmt.Errorf("%w: lp amount must be positive", ErrInvalidCalculation)
	}
	if lpAmount > shareSupply {
		return 0, 0, fmt.Errorf("%w: redeem %d of %d shares", ErrInsufficientBalance, lpAmount, shareSupply)
	}

	amountA, err := mulDiv(reserveA, lpAmount, shareSupply)
	if err != nil {
		return 0, 0, err
	}
	amountB, err := mulDiv(reserveB, lpAmount, shareSupply)
	if err != nil {
		return 0, 0, err
	}
	return amountA, amountB, nil
}
