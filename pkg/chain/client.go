// Package chain wraps the Solana JSON-RPC endpoints used for submission,
// balances and signature status.
package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sol-swap/pkg/logger"
	"sol-swap/pkg/tokens"
	"sol-swap/pkg/types"
)

const sendMaxRetries uint = 3

// Options configures a Client.
type Options struct {
	// URLs are tried in order; the first is the primary endpoint.
	URLs          []string
	Commitment    string
	SkipPreflight bool
	Logger        *zap.Logger
}

// Client is a Solana RPC client with endpoint fallback.
type Client struct {
	endpoints     []*rpc.Client
	urls          []string
	commitment    rpc.CommitmentType
	skipPreflight bool
	log           *zap.Logger
}

// New connects to the configured endpoints.
func New(opts Options) (*Client, error) {
	urls := make([]string, 0, len(opts.URLs))
	for _, u := range opts.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("RPC URL not configured")
	}
	c := &Client{
		urls:          urls,
		commitment:    Commitment(opts.Commitment),
		skipPreflight: opts.SkipPreflight,
		log:           logger.Named(opts.Logger, "rpc"),
	}
	for _, u := range urls {
		c.endpoints = append(c.endpoints, rpc.New(u))
	}
	return c, nil
}

// Commitment maps a configured commitment name to its RPC value.
func Commitment(name string) rpc.CommitmentType {
	switch strings.ToLower(name) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// each runs fn against every endpoint until one succeeds.
func (c *Client) each(ctx context.Context, op string, fn func(*rpc.Client) error) error {
	var lastErr error
	for i, ep := range c.endpoints {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ep)
		if lastErr == nil {
			return nil
		}
		if i+1 < len(c.endpoints) {
			c.log.Warn("rpc call failed, trying fallback",
				zap.String("op", op),
				zap.String("endpoint", c.urls[i]),
				zap.Error(lastErr))
		}
	}
	return lastErr
}

// SendTransaction submits a fully signed transaction. Resubmitting the same
// signed transaction to a fallback endpoint cannot double-spend.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := sendMaxRetries
	opts := rpc.TransactionOpts{
		SkipPreflight:       c.skipPreflight,
		PreflightCommitment: c.commitment,
		MaxRetries:          &maxRetries,
	}
	var sig solana.Signature
	err := c.each(ctx, "sendTransaction", func(ep *rpc.Client) error {
		var err error
		sig, err = ep.SendTransactionWithOpts(ctx, tx, opts)
		return err
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// NativeBalance returns the SOL balance of owner in lamports.
func (c *Client) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	var lamports uint64
	err := c.each(ctx, "getBalance", func(ep *rpc.Client) error {
		res, err := ep.GetBalance(ctx, owner, c.commitment)
		if err != nil {
			return err
		}
		lamports = res.Value
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return lamports, nil
}

// TokenBalance returns the raw balance of owner's associated token account
// for mint. A missing account is a zero balance.
func (c *Client) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	var amount uint64
	err = c.each(ctx, "getTokenAccountBalance", func(ep *rpc.Client) error {
		res, err := ep.GetTokenAccountBalance(ctx, ata, c.commitment)
		if err != nil {
			return err
		}
		amount, err = parseUint(res.Value.Amount)
		return err
	})
	if err != nil {
		if isAccountMissing(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get token balance: %w", err)
	}
	return amount, nil
}

// Balance returns owner's balance of tok as a decimal amount.
func (c *Client) Balance(ctx context.Context, owner solana.PublicKey, tok types.Token) (decimal.Decimal, error) {
	var (
		raw uint64
		err error
	)
	if tokens.IsNative(tok) {
		raw, err = c.NativeBalance(ctx, owner)
	} else {
		var mint solana.PublicKey
		mint, err = solana.PublicKeyFromBase58(tok.Address)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid token mint address: %w", err)
		}
		raw, err = c.TokenBalance(ctx, owner, mint)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromUint64(raw).Shift(-tok.Decimals), nil
}

// SignatureStatuses looks up the ledger status of each signature.
func (c *Client) SignatureStatuses(ctx context.Context, signatures ...string) ([]types.SignatureStatus, error) {
	sigs := make([]solana.Signature, 0, len(signatures))
	for _, s := range signatures {
		sig, err := solana.SignatureFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction signature %q: %w", s, err)
		}
		sigs = append(sigs, sig)
	}

	var res *rpc.GetSignatureStatusesResult
	err := c.each(ctx, "getSignatureStatuses", func(ep *rpc.Client) error {
		var err error
		res, err = ep.GetSignatureStatuses(ctx, true, sigs...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get signature statuses: %w", err)
	}

	out := make([]types.SignatureStatus, len(signatures))
	for i, s := range signatures {
		out[i] = types.SignatureStatus{Signature: s, Status: types.StatusPending}
		if i >= len(res.Value) || res.Value[i] == nil {
			continue
		}
		st := res.Value[i]
		out[i].Slot = st.Slot
		out[i].Confirmations = st.Confirmations
		out[i].Commitment = string(st.ConfirmationStatus)
		switch {
		case st.Err != nil:
			out[i].Status = types.StatusFailed
			out[i].Err = fmt.Sprintf("%v", st.Err)
		case st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed,
			st.ConfirmationStatus == rpc.ConfirmationStatusFinalized:
			out[i].Status = types.StatusCompleted
		}
	}
	return out, nil
}

func parseUint(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %w", err)
	}
	if !d.BigInt().IsUint64() {
		return 0, fmt.Errorf("token balance out of range: %s", s)
	}
	return d.BigInt().Uint64(), nil
}

// isAccountMissing reports the RPC's answer for a token account that was
// never created. Other failures, including unknown methods and HTTP errors,
// are not a zero balance.
func isAccountMissing(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "could not find account")
}
