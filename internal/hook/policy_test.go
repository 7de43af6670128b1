package hook

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol = common.HexToAddress("0x00000000000000000000000000000000000000b3")
)

func fixedEvaluator(now time.Time) *Evaluator {
	e := NewEvaluator()
	e.now = func() time.Time { return now }
	return e
}

func TestWhitelistPolicy(t *testing.T) {
	e := NewEvaluator()
	p := WhitelistPolicy{Destinations: []common.Address{bob}}

	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Destination: bob, Amount: 5}))
	err := e.Check(hookX, p, Transfer{Source: alice, Destination: carol, Amount: 5})
	require.ErrorIs(t, err, ErrNotWhitelisted)
	require.ErrorIs(t, err, ErrHookValidationFailed)
}

func TestKYCPolicyRequiresBothParties(t *testing.T) {
	e := NewEvaluator()
	p := KYCPolicy{Verified: []common.Address{alice, bob}}

	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Destination: bob}))
	require.ErrorIs(t, e.Check(hookX, p, Transfer{Source: carol, Destination: bob}), ErrNotVerified)
	require.ErrorIs(t, e.Check(hookX, p, Transfer{Source: alice, Destination: carol}), ErrNotVerified)
}

func TestCompliancePolicy(t *testing.T) {
	e := NewEvaluator()
	p := CompliancePolicy{Rules: []ComplianceRule{
		{Kind: RuleMinAmount, Value: 10},
		{Kind: RuleMaxAmount, Value: 100},
		{Kind: "unknown", Value: 1},
	}}

	require.NoError(t, e.Check(hookX, p, Transfer{Amount: 10}))
	require.NoError(t, e.Check(hookX, p, Transfer{Amount: 100}))
	require.ErrorIs(t, e.Check(hookX, p, Transfer{Amount: 9}), ErrComplianceViolation)
	require.ErrorIs(t, e.Check(hookX, p, Transfer{Amount: 101}), ErrComplianceViolation)
}

func TestRateLimitSingleTransferCap(t *testing.T) {
	e := NewEvaluator()
	p := RateLimitPolicy{MaxAmount: 50}

	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 50}))
	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 50}))
	require.ErrorIs(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 51}), ErrAmountExceedsLimit)
}

func TestRateLimitWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := fixedEvaluator(now)
	p := RateLimitPolicy{Window: time.Hour, WindowCap: 100}

	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 60}))
	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 40}))
	require.ErrorIs(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 1}), ErrRateLimitExceeded)

	// windows are per source and per program
	require.NoError(t, e.Check(hookX, p, Transfer{Source: bob, Amount: 100}))
	require.NoError(t, e.Check(hookY, p, Transfer{Source: alice, Amount: 100}))

	// capacity refills over the window
	e.now = func() time.Time { return now.Add(2 * time.Hour) }
	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 100}))
}

func TestRateLimitPeekDoesNotConsume(t *testing.T) {
	e := fixedEvaluator(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p := RateLimitPolicy{Window: time.Minute, WindowCap: 10}

	for i := 0; i < 5; i++ {
		require.NoError(t, e.Peek(hookX, p, Transfer{Source: alice, Amount: 10}))
	}
	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 10}))
	require.ErrorIs(t, e.Peek(hookX, p, Transfer{Source: alice, Amount: 1}), ErrRateLimitExceeded)
	require.ErrorIs(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 11}), ErrRateLimitExceeded)
}

func TestRateLimitHugeCap(t *testing.T) {
	e := fixedEvaluator(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p := RateLimitPolicy{Window: time.Hour, WindowCap: math.MaxUint64}

	require.NoError(t, e.Peek(hookX, p, Transfer{Source: alice, Amount: 1_000}))
	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Amount: 1_000}))
	require.NoError(t, e.Check(hookX, p, Transfer{Source: alice, Amount: math.MaxUint64}))
}

func TestRateLimitNewPolicyStartsFreshWindow(t *testing.T) {
	e := fixedEvaluator(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tight := RateLimitPolicy{Window: time.Hour, WindowCap: 100}

	require.NoError(t, e.Check(hookX, tight, Transfer{Source: alice, Amount: 100}))
	require.ErrorIs(t, e.Check(hookX, tight, Transfer{Source: alice, Amount: 50}), ErrRateLimitExceeded)

	loose := RateLimitPolicy{Window: time.Hour, WindowCap: 1_000}
	require.NoError(t, e.Check(hookX, loose, Transfer{Source: alice, Amount: 500}))
	require.NoError(t, e.Peek(hookX, loose, Transfer{Source: alice, Amount: 500}))
}

type customPolicy struct{ WhitelistPolicy }

func TestUnknownPolicyRejected(t *testing.T) {
	e := NewEvaluator()
	require.NoError(t, e.Check(hookX, nil, Transfer{Amount: 1}))

	err := e.Check(hookX, customPolicy{}, Transfer{Amount: 1})
	if !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("error = %v, want ErrUnknownPolicy", err)
	}
}
