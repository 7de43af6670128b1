package aggregate

import (
	"math/big"
	"strings"

	"hookAMM/internal/model"
)

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

func poolKey(assetA, assetB string) model.PoolKey {
	return model.PoolKey{AssetA: strings.ToLower(assetA), AssetB: strings.ToLower(assetB)}
}
