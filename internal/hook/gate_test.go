package hook

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"hookAMM/internal/amm"
)

var (
	hookX = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	hookY = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	hookZ = common.HexToAddress("0x00000000000000000000000000000000000000a3")
)

func TestAuthorizeTransferTruthTable(t *testing.T) {
	cases := []struct {
		name      string
		hook      bool
		whitelist []common.Address
		presented []common.Address
		want      bool
	}{
		{"no hook, nothing presented", false, nil, nil, true},
		{"no hook, empty whitelist", false, nil, []common.Address{hookX}, true},
		{"hook, overlap", true, []common.Address{hookX, hookY}, []common.Address{hookY}, true},
		{"hook, overlap late in list", true, []common.Address{hookX}, []common.Address{hookZ, hookY, hookX}, true},
		{"hook, disjoint", true, []common.Address{hookX}, []common.Address{hookY}, false},
		{"hook, empty whitelist", true, nil, []common.Address{hookX}, false},
		{"hook, nothing presented", true, []common.Address{hookX}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := AuthorizeTransfer(tc.hook, tc.whitelist, tc.presented)
			if ok != tc.want {
				t.Fatalf("allowed = %v, want %v", ok, tc.want)
			}
			if tc.want && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.want && !errors.Is(err, amm.ErrHookNotWhitelisted) {
				t.Fatalf("error = %v, want ErrHookNotWhitelisted", err)
			}
		})
	}
}

func TestFirstTrustedKeepsPresentedOrder(t *testing.T) {
	got, ok := FirstTrusted([]common.Address{hookX, hookY}, []common.Address{hookZ, hookY, hookX})
	if !ok || got != hookY {
		t.Fatalf("FirstTrusted = %s, %v; want %s", got.Hex(), ok, hookY.Hex())
	}
}

func TestHookCodesRegistered(t *testing.T) {
	if got := amm.Code(ErrRateLimitExceeded); got != "RateLimitExceeded" {
		t.Fatalf("code = %q", got)
	}
	if got := amm.Code(ErrHookValidationFailed); got != "HookValidationFailed" {
		t.Fatalf("code = %q", got)
	}
	if got := amm.Code(amm.ErrHookNotWhitelisted); got != "HookNotWhitelisted" {
		t.Fatalf("code = %q", got)
	}
}
