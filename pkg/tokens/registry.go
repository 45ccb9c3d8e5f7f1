// Package tokens holds the built-in token lists, remote token search and
// amount formatting.
package tokens

import (
	"strings"
	"sync"

	"github.com/samber/lo"

	"sol-swap/pkg/types"
)

// NativeMint is wrapped SOL.
const NativeMint = "So11111111111111111111111111111111111111112"

var sol = types.Token{Symbol: "SOL", Name: "Solana", Address: NativeMint, Decimals: 9, Verified: true}

var devnetTokens = []types.Token{
	sol,
	{Symbol: "USDC", Name: "USD Coin", Address: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", Decimals: 6, Verified: true},
	{Symbol: "USDT", Name: "Tether USD", Address: "EJwZgeZrdC8TXTQbQBoL6bfuAnFUUy1PVCMB4DYPzVaS", Decimals: 6, Verified: true},
	{Symbol: "BONK", Name: "Bonk", Address: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Decimals: 5, Verified: true},
}

var mainnetTokens = []types.Token{
	sol,
	{Symbol: "USDC", Name: "USD Coin", Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6, Verified: true},
	{Symbol: "USDT", Name: "Tether USD", Address: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6, Verified: true},
	{Symbol: "BONK", Name: "Bonk", Address: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Decimals: 5, Verified: true},
}

var aliases = map[string]string{
	"WSOL": "SOL",
}

// NormalizeSymbol upper-cases a symbol and resolves common aliases.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if normalized, ok := aliases[symbol]; ok {
		return normalized
	}
	return symbol
}

// Registry is the set of tokens known without a network call. Tokens found
// through search can be added at runtime.
type Registry struct {
	mu     sync.RWMutex
	tokens []types.Token
}

// NewRegistry returns the built-in list for network ("devnet" or "mainnet").
func NewRegistry(network string) *Registry {
	base := devnetTokens
	if network == "mainnet" {
		base = mainnetTokens
	}
	return &Registry{tokens: append([]types.Token(nil), base...)}
}

// All returns a copy of the known tokens.
func (r *Registry) All() []types.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.Token(nil), r.tokens...)
}

// FindBySymbol looks a token up by symbol, case-insensitively.
func (r *Registry) FindBySymbol(symbol string) (types.Token, bool) {
	symbol = NormalizeSymbol(symbol)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Find(r.tokens, func(t types.Token) bool {
		return strings.EqualFold(t.Symbol, symbol)
	})
}

// FindByAddress looks a token up by mint address.
func (r *Registry) FindByAddress(address string) (types.Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Find(r.tokens, func(t types.Token) bool {
		return t.Address == address
	})
}

// Add registers tok unless its mint is already known.
func (r *Registry) Add(tok types.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lo.ContainsBy(r.tokens, func(t types.Token) bool { return t.Address == tok.Address }) {
		return
	}
	r.tokens = append(r.tokens, tok)
}

// Filter returns tokens whose symbol or name contains query.
func (r *Registry) Filter(query string) []types.Token {
	query = strings.ToLower(strings.TrimSpace(query))
	all := r.All()
	if query == "" {
		return all
	}
	return lo.Filter(all, func(t types.Token, _ int) bool {
		return strings.Contains(strings.ToLower(t.Symbol), query) ||
			strings.Contains(strings.ToLower(t.Name), query)
	})
}

// IsNative reports whether tok is SOL.
func IsNative(tok types.Token) bool {
	return tok.Address == NativeMint
}
