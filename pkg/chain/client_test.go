package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-swap/pkg/types"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newRPCServer answers JSON-RPC calls with results[method]; a string value
// starting with "error:" becomes a JSON-RPC error.
func newRPCServer(t *testing.T, results map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		res, ok := results[req.Method]
		if msg, isErr := res.(string); ok && isErr && len(msg) > 6 && msg[:6] == "error:" {
			resp["error"] = map[string]any{"code": -32602, "message": msg[6:]}
		} else if ok {
			resp["result"] = res
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func ctxResult(value any) map[string]any {
	return map[string]any{"context": map[string]any{"slot": 1}, "value": value}
}

func TestCommitment(t *testing.T) {
	assert.Equal(t, rpc.CommitmentFinalized, Commitment("Finalized"))
	assert.Equal(t, rpc.CommitmentProcessed, Commitment("processed"))
	assert.Equal(t, rpc.CommitmentConfirmed, Commitment(""))
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Options{URLs: []string{" "}})
	assert.Error(t, err)
}

func TestBalanceNativeAndToken(t *testing.T) {
	srv := newRPCServer(t, map[string]any{
		"getBalance": ctxResult(2_500_000_000),
		"getTokenAccountBalance": ctxResult(map[string]any{
			"amount": "150000000", "decimals": 6, "uiAmountString": "150",
		}),
	})
	defer srv.Close()

	c, err := New(Options{URLs: []string{srv.URL}})
	require.NoError(t, err)
	owner := solana.NewWallet().PublicKey()

	bal, err := c.Balance(context.Background(), owner, types.Token{Address: "So11111111111111111111111111111111111111112", Decimals: 9})
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("2.5")))

	bal, err = c.Balance(context.Background(), owner, types.Token{Address: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", Decimals: 6})
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(150)))
}

func TestTokenBalanceMissingAccountIsZero(t *testing.T) {
	srv := newRPCServer(t, map[string]any{
		"getTokenAccountBalance": "error:Invalid param: could not find account",
	})
	defer srv.Close()

	c, err := New(Options{URLs: []string{srv.URL}})
	require.NoError(t, err)
	amount, err := c.TokenBalance(context.Background(), solana.NewWallet().PublicKey(), solana.MustPublicKeyFromBase58("4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"))
	require.NoError(t, err)
	assert.Zero(t, amount)
}

func TestTokenBalanceEndpointFailureIsError(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU")

	noMethods := newRPCServer(t, map[string]any{})
	defer noMethods.Close()
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	for _, url := range []string{noMethods.URL, missing.URL} {
		c, err := New(Options{URLs: []string{url}})
		require.NoError(t, err)
		_, err = c.TokenBalance(context.Background(), solana.NewWallet().PublicKey(), mint)
		assert.Error(t, err, url)

		_, err = c.Balance(context.Background(), solana.NewWallet().PublicKey(), types.Token{Address: mint.String(), Decimals: 6})
		assert.Error(t, err, url)
	}
}

func TestFallbackEndpoint(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	up := newRPCServer(t, map[string]any{"getBalance": ctxResult(42)})
	defer up.Close()

	c, err := New(Options{URLs: []string{down.URL, up.URL}})
	require.NoError(t, err)
	lamports, err := c.NativeBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), lamports)
}

func TestSignatureStatuses(t *testing.T) {
	srv := newRPCServer(t, map[string]any{
		"getSignatureStatuses": ctxResult([]any{
			map[string]any{"slot": 10, "confirmations": nil, "err": nil, "confirmationStatus": "finalized"},
			map[string]any{"slot": 11, "confirmations": 1, "err": map[string]any{"InstructionError": []any{0, "Custom"}}, "confirmationStatus": "processed"},
			nil,
			map[string]any{"slot": 12, "confirmations": 0, "err": nil, "confirmationStatus": "processed"},
		}),
	})
	defer srv.Close()

	c, err := New(Options{URLs: []string{srv.URL}})
	require.NoError(t, err)

	sigs := []string{
		solana.Signature{1}.String(),
		solana.Signature{2}.String(),
		solana.Signature{3}.String(),
		solana.Signature{4}.String(),
	}
	got, err := c.SignatureStatuses(context.Background(), sigs...)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, types.StatusCompleted, got[0].Status)
	assert.Equal(t, uint64(10), got[0].Slot)
	assert.Equal(t, types.StatusFailed, got[1].Status)
	assert.NotEmpty(t, got[1].Err)
	assert.Equal(t, types.StatusPending, got[2].Status)
	assert.Equal(t, types.StatusPending, got[3].Status)

	_, err = c.SignatureStatuses(context.Background(), "not-a-signature")
	assert.Error(t, err)
}
