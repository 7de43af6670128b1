package model

import "time"

// PoolStats holds running counters for a pool since process start.
type PoolStats struct {
	AssetA        string
	AssetB        string
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	RejectedCount uint64
	VolumeA       string
	VolumeB       string
	FeeA          string
	FeeB          string
	LastActivity  time.Time
}
