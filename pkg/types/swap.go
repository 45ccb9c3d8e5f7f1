package types

import "encoding/json"

// SwapRequest represents a user's swap command
type SwapRequest struct {
	Amount      string
	SourceToken string
	DestToken   string
}

// TradeIntent is the user's pending trade as entered. It is replaced
// wholesale on every edit.
type TradeIntent struct {
	InputToken  Token
	OutputToken Token
	Amount      string // decimal text as typed, may be empty
	SlippageBps int
}

// Quote is a priced route returned by the aggregator quote endpoint.
// A Quote is never mutated after it is received.
type Quote struct {
	InputMint            string       `json:"inputMint"`
	InAmount             string       `json:"inAmount"`
	OutputMint           string       `json:"outputMint"`
	OutAmount            string       `json:"outAmount"`
	OtherAmountThreshold string       `json:"otherAmountThreshold"`
	SwapMode             string       `json:"swapMode"`
	SlippageBps          int          `json:"slippageBps"`
	PlatformFee          *PlatformFee `json:"platformFee,omitempty"`
	PriceImpactPct       string       `json:"priceImpactPct"`
	RoutePlan            []RoutePlan  `json:"routePlan"`
	ContextSlot          uint64       `json:"contextSlot,omitempty"`
	TimeTaken            float64      `json:"timeTaken,omitempty"`

	// Raw holds the exact response body; it is echoed back to the swap
	// endpoint untouched.
	Raw json.RawMessage `json:"-"`
}

// PlatformFee is the integrator fee attached to a quote.
type PlatformFee struct {
	Amount string `json:"amount"`
	FeeBps int    `json:"feeBps"`
}

// RoutePlan is one hop of a quote's route.
type RoutePlan struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

// SwapInfo describes the venue used for a hop.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// SwapResponse is the aggregator's constructed transaction.
type SwapResponse struct {
	SwapTransaction           string `json:"swapTransaction"`
	LastValidBlockHeight      uint64 `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports uint64 `json:"prioritizationFeeLamports,omitempty"`
}

// QuoteDisplay holds formatted quote information for display
type QuoteDisplay struct {
	SourceAmount string
	SourceToken  string
	DestAmount   string
	DestToken    string
	Summary      string // "1.0000 SOL → 150.0000 USDC"
	Rate         string // "1 SOL = 150.000000 USDC"
	PriceImpact  string
	HighImpact   bool
	MinReceived  string
	Slippage     string // percent, "0.5"
	Route        string
	PlatformFee  string
}

// SignatureStatus is the ledger view of a submitted transaction.
type SignatureStatus struct {
	Signature     string            `json:"signature"`
	Status        TransactionStatus `json:"status"`
	Commitment    string            `json:"commitment,omitempty"`
	Slot          uint64            `json:"slot,omitempty"`
	Confirmations *uint64           `json:"confirmations,omitempty"`
	Err           string            `json:"err,omitempty"`
}
