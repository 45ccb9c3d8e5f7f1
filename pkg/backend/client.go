// Package backend is the HTTP client for the swap-record and auth service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/logger"
)

const DefaultTimeout = 15 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the backend REST API. Wallet-scoped endpoints send the
// bearer token; public ones send it when present.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        *zap.Logger

	mu    sync.RWMutex
	token string
}

// New creates a backend client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		token:      opts.Token,
		log:        logger.Named(opts.Logger, "backend"),
	}
}

// SetToken replaces the bearer token, e.g. after login.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) builder(path string) *requests.Builder {
	rb := requests.URL(c.baseURL + path).
		Client(c.httpClient).
		Accept("application/json")
	if tok := c.Token(); tok != "" {
		rb = rb.Bearer(tok)
	}
	return rb
}

// requireToken is used by endpoints that reject anonymous callers.
func (c *Client) requireToken() error {
	if c.Token() == "" {
		return apperror.New(apperror.CodeUnauthorized,
			apperror.WithMessage("No token provided. Run `sol-swap auth login` or set backend_token"))
	}
	return nil
}

// do sends rb and decodes a 2xx body into out. Non-2xx bodies are turned
// into AppErrors using their "error" field.
func (c *Client) do(ctx context.Context, rb *requests.Builder, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		status int
		buf    bytes.Buffer
	)
	err := rb.
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			return nil
		}).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		msg := "API request failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "API request timed out"
		}
		return apperror.New(apperror.CodeBackendError, apperror.WithMessage(msg), apperror.WithCause(err))
	}

	if status < 200 || status > 299 {
		c.log.Debug("backend request failed",
			zap.Int("status", status),
			zap.ByteString("body", buf.Bytes()))
		return responseError(status, buf.Bytes())
	}
	if out == nil || buf.Len() == 0 {
		return nil
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return apperror.New(apperror.CodeBackendError,
			apperror.WithMessage("invalid response from backend"), apperror.WithCause(err))
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func responseError(status int, body []byte) error {
	msg := "API request failed"
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}
	code := apperror.CodeBackendError
	switch status {
	case http.StatusUnauthorized:
		code = apperror.CodeUnauthorized
	case http.StatusNotFound:
		code = apperror.CodeNotFound
	case http.StatusBadRequest:
		code = apperror.CodeValidationError
	}
	return apperror.New(code, apperror.WithMessage(msg), apperror.WithStatusCode(status))
}
