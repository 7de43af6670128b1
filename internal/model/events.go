package model

// Event kinds written to the journal.
const (
	EventPoolInitialized   = "pool_initialized"
	EventLiquidityAdded    = "liquidity_added"
	EventLiquidityRemoved  = "liquidity_removed"
	EventSwap              = "swap"
	EventWhitelistUpdated  = "whitelist_updated"
	EventActiveUpdated     = "active_updated"
	EventTransferSimulated = "transfer_simulated"
)

// InitEventData is the pool_initialized payload.
type InitEventData struct {
	Authority     string   `json:"authority"`
	FeeRateBps    uint64   `json:"fee_rate_bps"`
	ShareAsset    string   `json:"share_asset"`
	HookWhitelist []string `json:"hook_whitelist"`
}

// LiquidityEventData is the liquidity_added and liquidity_removed payload.
type LiquidityEventData struct {
	Provider    string `json:"provider"`
	AmountA     uint64 `json:"amount_a,string"`
	AmountB     uint64 `json:"amount_b,string"`
	Shares      uint64 `json:"shares,string"`
	ShareSupply uint64 `json:"share_supply,string"`
}

// SwapEventData is the swap payload.
type SwapEventData struct {
	Trader     string `json:"trader"`
	AssetIn    string `json:"asset_in"`
	AssetOut   string `json:"asset_out"`
	AmountIn   uint64 `json:"amount_in,string"`
	AmountOut  uint64 `json:"amount_out,string"`
	Fee        uint64 `json:"fee,string"`
	Authorizer string `json:"authorizer,omitempty"`
}

// WhitelistEventData is the whitelist_updated payload.
type WhitelistEventData struct {
	HookWhitelist []string `json:"hook_whitelist"`
}

// ActiveEventData is the active_updated payload.
type ActiveEventData struct {
	Active bool `json:"active"`
}

// SimulationEventData is the transfer_simulated payload.
type SimulationEventData struct {
	Asset       string   `json:"asset"`
	Source      string   `json:"source"`
	Destination string   `json:"destination"`
	Amount      uint64   `json:"amount,string"`
	Allowed     bool     `json:"allowed"`
	Authorizer  string   `json:"authorizer,omitempty"`
	Reasons     []string `json:"reasons,omitempty"`
}
