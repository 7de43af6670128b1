package amm

import (
	"errors"
	"fmt"
)

// Error kinds shared by the pricing, liquidity, gate and pool components.
var (
	ErrInvalidFeeRate         = errors.New("invalid fee rate")
	ErrInvalidCalculation     = errors.New("invalid calculation")
	ErrInsufficientLiquidity  = errors.New("insufficient liquidity")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrSlippageExceeded       = errors.New("slippage tolerance exceeded")
	ErrHookNotWhitelisted     = errors.New("transfer hook not whitelisted")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrPoolAlreadyInitialized = errors.New("pool already initialized")
	ErrPoolNotFound           = errors.New("pool not found")
)

// ErrPoolInactive and ErrInvalidAsset are reported as invalid calculations to
// callers that only know the narrow error set.
var (
	ErrPoolInactive = fmt.Errorf("%w: pool inactive", ErrInvalidCalculation)
	ErrInvalidAsset = fmt.Errorf("%w: invalid asset pair", ErrInvalidCalculation)
)

var codes = []struct {
	err  error
	code string
}{
	// more specific kinds first
	{ErrPoolInactive, "PoolInactive"},
	{ErrInvalidAsset, "InvalidAsset"},
	{ErrInvalidFeeRate, "InvalidFeeRate"},
	{ErrInvalidCalculation, "InvalidCalculation"},
	{ErrInsufficientLiquidity, "InsufficientLiquidity"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrSlippageExceeded, "SlippageExceeded"},
	{ErrHookNotWhitelisted, "HookNotWhitelisted"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrPoolAlreadyInitialized, "PoolAlreadyInitialized"},
	{ErrPoolNotFound, "PoolNotFound"},
}

// Code returns a stable name for the error kind carried by err, "Internal"
// for errors outside the known set and "" for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Internal"
}

// RegisterCode adds an error kind from another package to Code.
func RegisterCode(err error, code string) {
	codes = append([]struct {
		err  error
		code string
	}{{err, code}}, codes...)
}
