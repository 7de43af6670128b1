// Package hook decides whether transfers of hook-bearing assets may proceed.
//
// The gate only answers whether a trusted authorizer was presented with the
// transfer. Policies, the registry and the simulator model the rules a hook
// program itself enforces, so a caller can pre-check a transfer locally.
package hook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"hookAMM/internal/amm"
)

// MaxWhitelist bounds the number of trusted authorizers per pool.
const MaxWhitelist = 10

// AuthorizeTransfer allows a transfer of an asset without a hook
// unconditionally. For a hook-bearing asset at least one presented
// authorizer must be on the whitelist; otherwise it fails closed.
func AuthorizeTransfer(carriesHook bool, whitelist, presented []common.Address) (bool, error) {
	if !carriesHook {
		return true, nil
	}
	if _, ok := FirstTrusted(whitelist, presented); ok {
		return true, nil
	}
	return false, fmt.Errorf("%w: none of %d presented authorizers trusted", amm.ErrHookNotWhitelisted, len(presented))
}

// FirstTrusted returns the first presented authorizer that is on the whitelist.
func FirstTrusted(whitelist, presented []common.Address) (common.Address, bool) {
	if len(whitelist) == 0 || len(presented) == 0 {
		return common.Address{}, false
	}
	trusted := make(map[common.Address]struct{}, len(whitelist))
	for _, addr := range whitelist {
		trusted[addr] = struct{}{}
	}
	for _, addr := range presented {
		if _, ok := trusted[addr]; ok {
			return addr, true
		}
	}
	return common.Address{}, false
}
