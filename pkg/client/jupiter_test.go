package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

var (
	sol  = types.Token{Symbol: "SOL", Address: "So11111111111111111111111111111111111111112", Decimals: 9}
	usdc = types.Token{Symbol: "USDC", Address: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", Decimals: 6}
)

const quoteBody = `{
	"inputMint":"So11111111111111111111111111111111111111112",
	"inAmount":"1000000000",
	"outputMint":"4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
	"outAmount":"150000000",
	"otherAmountThreshold":"149250000",
	"swapMode":"ExactIn",
	"slippageBps":50,
	"priceImpactPct":"0.01",
	"routePlan":[{"swapInfo":{"ammKey":"k","label":"Orca","inputMint":"So11111111111111111111111111111111111111112","outputMint":"4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU","inAmount":"1000000000","outAmount":"150000000","feeAmount":"100","feeMint":"So11111111111111111111111111111111111111112"},"percent":100}],
	"vendorField":{"kept":true}
}`

func newTestClient(srv *httptest.Server) *JupiterClient {
	return NewJupiterClient(Options{BaseURL: srv.URL + "/", HTTPClient: srv.Client(), Timeout: time.Second})
}

func TestGetQuoteBuildsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, sol.Address, q.Get("inputMint"))
		assert.Equal(t, usdc.Address, q.Get("outputMint"))
		assert.Equal(t, "1000000000", q.Get("amount"))
		assert.Equal(t, "50", q.Get("slippageBps"))
		assert.Equal(t, "false", q.Get("onlyDirectRoutes"))
		assert.Equal(t, "false", q.Get("asLegacyTransaction"))
		_, _ = w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	quote, err := newTestClient(srv).GetQuote(context.Background(), sol, usdc, "1.0", 50)
	require.NoError(t, err)
	assert.Equal(t, "150000000", quote.OutAmount)
	assert.Equal(t, 50, quote.SlippageBps)
	require.Len(t, quote.RoutePlan, 1)
	assert.Equal(t, "Orca", quote.RoutePlan[0].SwapInfo.Label)
	assert.Contains(t, string(quote.Raw), "vendorField")
}

func TestGetQuoteErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"structured error", http.StatusTooManyRequests, `{"error":"rate limited"}`, "rate limited"},
		{"unstructured error", http.StatusInternalServerError, `oops`, "request failed with status 500"},
		{"error on 200", http.StatusOK, `{"error":"Could not find any route"}`, "Could not find any route"},
		{"missing amounts", http.StatusOK, `{"inputMint":"x"}`, "invalid quote response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).GetQuote(context.Background(), sol, usdc, "1", 50)
			require.Error(t, err)
			assert.Equal(t, apperror.CodeQuoteFailed, apperror.GetCode(err))
			assert.Equal(t, tc.wantMsg, apperror.UserMessage(err))
		})
	}
}

func TestGetQuoteRejectsInvalidAmountWithoutRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetQuote(context.Background(), sol, usdc, "-1", 50)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeValidationError, apperror.GetCode(err))
	assert.False(t, called)
}

func TestGetQuoteTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewJupiterClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Timeout: 50 * time.Millisecond})
	_, err := c.GetQuote(context.Background(), sol, usdc, "1", 50)
	require.Error(t, err)
	assert.Equal(t, "quote request timed out", apperror.UserMessage(err))
}

func TestBuildSwapTransactionSendsQuoteVerbatim(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			_, _ = w.Write([]byte(quoteBody))
		case "/swap":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"swapTransaction":"AQID","lastValidBlockHeight":123}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	quote, err := c.GetQuote(context.Background(), sol, usdc, "1", 50)
	require.NoError(t, err)

	resp, err := c.BuildSwapTransaction(context.Background(), quote, "User1111", &PlatformFee{Account: "Fee1111", Bps: 1000})
	require.NoError(t, err)
	assert.Equal(t, "AQID", resp.SwapTransaction)
	assert.Equal(t, uint64(123), resp.LastValidBlockHeight)

	assert.JSONEq(t, quoteBody, string(got["quoteResponse"]))
	assert.JSONEq(t, `"User1111"`, string(got["userPublicKey"]))
	assert.JSONEq(t, `true`, string(got["wrapAndUnwrapSol"]))
	assert.JSONEq(t, `true`, string(got["dynamicComputeUnitLimit"]))
	assert.JSONEq(t, `"auto"`, string(got["prioritizationFeeLamports"]))
	assert.JSONEq(t, `"Fee1111"`, string(got["feeAccount"]))
	assert.JSONEq(t, `1000`, string(got["platformFeeBps"]))
}

func TestBuildSwapTransactionOmitsFeeWhenUnset(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"swapTransaction":"AQID","lastValidBlockHeight":1}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).BuildSwapTransaction(context.Background(), &types.Quote{InAmount: "1", OutAmount: "2"}, "User1111", nil)
	require.NoError(t, err)
	assert.NotContains(t, got, "feeAccount")
	assert.NotContains(t, got, "platformFeeBps")
}

func TestBuildSwapTransactionFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"bad status", http.StatusBadRequest, `{"error":"quote expired"}`, "quote expired"},
		{"missing transaction", http.StatusOK, `{"lastValidBlockHeight":1}`, "swap response did not include a transaction"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).BuildSwapTransaction(context.Background(), &types.Quote{InAmount: "1", OutAmount: "2"}, "u", nil)
			require.Error(t, err)
			assert.Equal(t, apperror.CodeSwapBuildFailed, apperror.GetCode(err))
			assert.Equal(t, tc.wantMsg, apperror.UserMessage(err))
		})
	}

	_, err := NewJupiterClient(Options{BaseURL: "http://unused"}).BuildSwapTransaction(context.Background(), nil, "u", nil)
	assert.Equal(t, apperror.CodeNoQuote, apperror.GetCode(err))
}
