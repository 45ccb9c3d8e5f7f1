package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/intent"
	"sol-swap/pkg/logger"
	"sol-swap/pkg/metrics"
	"sol-swap/pkg/ratelimit"
	"sol-swap/pkg/types"
)

const DefaultTimeout = 10 * time.Second

// Options configures a JupiterClient.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
	Logger            *zap.Logger
}

// PlatformFee is an optional integrator fee attached to a swap.
type PlatformFee struct {
	Account string
	Bps     int
}

// JupiterClient talks to the aggregator's quote and swap endpoints. Each
// call is a single attempt; retries are left to the caller.
type JupiterClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *ratelimit.Limiter
	log        *zap.Logger
}

// NewJupiterClient creates a new aggregator client
func NewJupiterClient(opts Options) *JupiterClient {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &JupiterClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		limiter:    ratelimit.New(opts.RequestsPerMinute),
		log:        logger.Named(opts.Logger, "jupiter"),
	}
}

type swapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports string          `json:"prioritizationFeeLamports"`
	FeeAccount                string          `json:"feeAccount,omitempty"`
	PlatformFeeBps            int             `json:"platformFeeBps,omitempty"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GetQuote prices amount (decimal text) of input into output.
func (c *JupiterClient) GetQuote(ctx context.Context, input, output types.Token, amount string, slippageBps int) (*types.Quote, error) {
	parsed, err := intent.ParseAmount(amount)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeValidationError, "quote")
	}
	raw, err := intent.ToRaw(parsed, input.Decimals)
	if err != nil {
		return nil, err
	}
	return c.GetQuoteRaw(ctx, input.Address, output.Address, raw, slippageBps)
}

// GetQuoteRaw prices raw base units of inputMint into outputMint.
func (c *JupiterClient) GetQuoteRaw(ctx context.Context, inputMint, outputMint string, rawAmount uint64, slippageBps int) (*types.Quote, error) {
	start := time.Now()
	quote, err := c.getQuote(ctx, inputMint, outputMint, rawAmount, slippageBps)
	metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		c.log.Debug("quote failed",
			zap.String("inputMint", inputMint),
			zap.String("outputMint", outputMint),
			zap.Uint64("amount", rawAmount),
			zap.Error(err))
		return nil, err
	}
	metrics.QuoteRequests.WithLabelValues("ok").Inc()
	return quote, nil
}

func (c *JupiterClient) getQuote(ctx context.Context, inputMint, outputMint string, rawAmount uint64, slippageBps int) (*types.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	rb := requests.URL(c.baseURL + "/quote").
		Param("inputMint", inputMint).
		Param("outputMint", outputMint).
		Param("amount", strconv.FormatUint(rawAmount, 10)).
		Param("slippageBps", strconv.Itoa(slippageBps)).
		Param("onlyDirectRoutes", "false").
		Param("asLegacyTransaction", "false")

	status, body, err := c.fetch(ctx, rb)
	if err != nil {
		return nil, transportError(apperror.CodeQuoteFailed, "quote", err)
	}
	if status < 200 || status >= 300 {
		return nil, statusError(apperror.CodeQuoteFailed, status, body)
	}

	// the aggregator can answer 200 with a logical error
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		return nil, apperror.New(apperror.CodeQuoteFailed, apperror.WithMessage(eb.Error), apperror.WithStatusCode(status))
	}

	var quote types.Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithMessage("invalid quote response"), apperror.WithCause(err))
	}
	if quote.OutAmount == "" || quote.InAmount == "" {
		return nil, apperror.New(apperror.CodeQuoteFailed, apperror.WithMessage("invalid quote response"))
	}
	quote.Raw = json.RawMessage(bytes.Clone(body))
	return &quote, nil
}

// BuildSwapTransaction asks the aggregator to construct the transaction
// for quote. The quote is sent back exactly as it was received.
func (c *JupiterClient) BuildSwapTransaction(ctx context.Context, quote *types.Quote, userPublicKey string, fee *PlatformFee) (*types.SwapResponse, error) {
	if quote == nil {
		return nil, apperror.New(apperror.CodeNoQuote)
	}
	quoteJSON := quote.Raw
	if len(quoteJSON) == 0 {
		var err error
		if quoteJSON, err = json.Marshal(quote); err != nil {
			return nil, apperror.New(apperror.CodeSwapBuildFailed, apperror.WithCause(err))
		}
	}

	req := swapRequest{
		QuoteResponse:             quoteJSON,
		UserPublicKey:             userPublicKey,
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: "auto",
	}
	if fee != nil && fee.Account != "" {
		req.FeeAccount = fee.Account
		req.PlatformFeeBps = fee.Bps
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rb := requests.URL(c.baseURL + "/swap").
		Method(http.MethodPost).
		BodyJSON(&req)

	status, body, err := c.fetch(ctx, rb)
	if err != nil {
		return nil, transportError(apperror.CodeSwapBuildFailed, "swap", err)
	}
	if status < 200 || status >= 300 {
		return nil, statusError(apperror.CodeSwapBuildFailed, status, body)
	}

	var resp types.SwapResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperror.New(apperror.CodeSwapBuildFailed,
			apperror.WithMessage("invalid swap response"), apperror.WithCause(err))
	}
	if resp.SwapTransaction == "" {
		return nil, apperror.New(apperror.CodeSwapBuildFailed,
			apperror.WithMessage("swap response did not include a transaction"))
	}
	c.log.Debug("swap transaction built",
		zap.String("user", userPublicKey),
		zap.Uint64("lastValidBlockHeight", resp.LastValidBlockHeight))
	return &resp, nil
}

// fetch performs the request without status validation so the caller can
// inspect error bodies.
func (c *JupiterClient) fetch(ctx context.Context, rb *requests.Builder) (int, []byte, error) {
	var (
		status int
		buf    bytes.Buffer
	)
	err := rb.Client(c.httpClient).
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			return nil
		}).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	return status, buf.Bytes(), err
}

func statusError(code apperror.Code, status int, body []byte) error {
	msg := fmt.Sprintf("request failed with status %d", status)
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		switch {
		case eb.Error != "":
			msg = eb.Error
		case eb.Message != "":
			msg = eb.Message
		}
	}
	return apperror.New(code, apperror.WithMessage(msg), apperror.WithStatusCode(status))
}

func transportError(code apperror.Code, op string, err error) error {
	msg := fmt.Sprintf("%s request failed: %v", op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		msg = op + " request timed out"
	}
	return apperror.New(code, apperror.WithMessage(msg), apperror.WithCause(err))
}
