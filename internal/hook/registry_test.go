package hook

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"hookAMM/internal/amm"
)

var registryAuthority = common.HexToAddress("0x00000000000000000000000000000000000000f0")

func TestRegistryAuthorityOnly(t *testing.T) {
	r := NewRegistry(registryAuthority)
	entry := Entry{Program: hookX, Name: "kyc", Active: true, RiskLevel: RiskLow}

	require.ErrorIs(t, r.Approve(alice, entry), amm.ErrUnauthorized)
	require.NoError(t, r.Approve(registryAuthority, entry))
	require.ErrorIs(t, r.Revoke(alice, hookX), amm.ErrUnauthorized)

	got, ok := r.Lookup(hookX)
	require.True(t, ok)
	require.Equal(t, "kyc", got.Name)
	require.EqualValues(t, 1, r.Version())
}

func TestRegistryRejectsBadRisk(t *testing.T) {
	r := NewRegistry(registryAuthority)
	require.ErrorIs(t, r.Approve(registryAuthority, Entry{Program: hookX, RiskLevel: 0}), ErrInvalidRisk)
	require.ErrorIs(t, r.Approve(registryAuthority, Entry{Program: hookX, RiskLevel: 4}), ErrInvalidRisk)
	require.Zero(t, r.Version())
}

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry(registryAuthority)
	for i := 0; i < MaxRegistered; i++ {
		program := common.HexToAddress(fmt.Sprintf("0x%040x", i+1))
		require.NoError(t, r.Approve(registryAuthority, Entry{Program: program, RiskLevel: RiskLow}))
	}

	extra := common.HexToAddress(fmt.Sprintf("0x%040x", MaxRegistered+1))
	require.ErrorIs(t, r.Approve(registryAuthority, Entry{Program: extra, RiskLevel: RiskLow}), ErrRegistryFull)

	// updating an existing program still works when full
	first := common.HexToAddress(fmt.Sprintf("0x%040x", 1))
	require.NoError(t, r.Approve(registryAuthority, Entry{Program: first, RiskLevel: RiskHigh}))
	require.Len(t, r.Entries(), MaxRegistered)
}

func TestRegistryRevoke(t *testing.T) {
	r := NewRegistry(registryAuthority)
	require.NoError(t, r.Approve(registryAuthority, Entry{Program: hookY, RiskLevel: RiskMedium}))
	require.NoError(t, r.Approve(registryAuthority, Entry{Program: hookX, RiskLevel: RiskMedium}))

	entries := r.Entries()
	require.Equal(t, hookX, entries[0].Program)
	require.Equal(t, hookY, entries[1].Program)

	require.NoError(t, r.Revoke(registryAuthority, hookX))
	require.ErrorIs(t, r.Revoke(registryAuthority, hookX), ErrNotRegistered)
	_, ok := r.Lookup(hookX)
	require.False(t, ok)
	require.EqualValues(t, 3, r.Version())
}
