package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PoolEvent is a journal entry for a successful engine operation.
type PoolEvent struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	AssetA     string          `json:"asset_a"`
	AssetB     string          `json:"asset_b"`
	Caller     string          `json:"caller"`
	Version    uint64          `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewPoolEvent encodes payload and assigns a fresh id.
func NewPoolEvent(kind string, key PoolKey, caller string, version uint64, at time.Time, payload interface{}) (PoolEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return PoolEvent{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return PoolEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		AssetA:     key.AssetA,
		AssetB:     key.AssetB,
		Caller:     caller,
		Version:    version,
		OccurredAt: at.UTC(),
		Payload:    raw,
	}, nil
}

// NewOperationError builds an error record with a fresh id.
func NewOperationError(kind string, key PoolKey, caller, code string, err error, at time.Time) OperationError {
	return OperationError{
		ID:         uuid.NewString(),
		Kind:       kind,
		AssetA:     key.AssetA,
		AssetB:     key.AssetB,
		Caller:     caller,
		Code:       code,
		Error:      err.Error(),
		OccurredAt: at.UTC(),
	}
}
