package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hookAMM/internal/model"
)

func TestAssetRegistryCarriesHook(t *testing.T) {
	r := NewAssetRegistry()
	require.False(t, r.CarriesHook(usdc))

	r.Set(usdc, model.AssetMeta{Address: usdc.Hex(), Symbol: "USDC", Decimals: 6})
	require.False(t, r.CarriesHook(usdc))
	require.EqualValues(t, 6, r.Decimals(usdc))

	r.Set(share, model.AssetMeta{Address: share.Hex(), TransferHook: vault.Hex()})
	require.True(t, r.CarriesHook(share))
}
