package model

// AssetMeta captures ledger asset metadata. TransferHook is empty when the
// asset carries no hook.
type AssetMeta struct {
	Address      string `json:"address"`
	Symbol       string `json:"symbol"`
	Decimals     uint8  `json:"decimals"`
	TransferHook string `json:"transfer_hook,omitempty"`
}
