package model

import "time"

// OperationError records a rejected or failed engine operation.
type OperationError struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	AssetA     string    `json:"asset_a"`
	AssetB     string    `json:"asset_b"`
	Caller     string    `json:"caller"`
	Code       string    `json:"code"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}
