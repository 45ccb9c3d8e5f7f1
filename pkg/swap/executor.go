// Package swap runs a confirmed quote through build, sign and submit, and
// reconciles the outcome with the record backend.
package swap

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/client"
	"sol-swap/pkg/logger"
	"sol-swap/pkg/metrics"
	"sol-swap/pkg/signer"
	"sol-swap/pkg/types"
)

// State is the executor's position in the swap lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StateBuilding          State = "building"
	StateAwaitingSignature State = "awaiting_signature"
	StateSubmitted         State = "submitted"
	StateConfirmed         State = "confirmed"
	StateFailed            State = "failed"
)

// InProgress reports whether a swap is running in this state.
func (s State) InProgress() bool {
	return s == StateBuilding || s == StateAwaitingSignature || s == StateSubmitted
}

const DefaultConfirmTimeout = 60 * time.Second

// Builder constructs the unsigned swap transaction for a quote.
type Builder interface {
	BuildSwapTransaction(ctx context.Context, quote *types.Quote, userPublicKey string, fee *client.PlatformFee) (*types.SwapResponse, error)
}

// Submission is the result of a successful swap.
type Submission struct {
	Signature string
	Method    string
	// Status is completed when the ledger confirmed the swap before
	// Execute returned, pending otherwise.
	Status  types.TransactionStatus
	Warning string
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	Fee *client.PlatformFee
	// Confirmer, when set together with WaitConfirmation, makes Execute
	// wait for the ledger before reporting success.
	Confirmer        *Confirmer
	WaitConfirmation bool
	ConfirmTimeout   time.Duration
	OnState          func(State, error)
	Logger           *zap.Logger
}

// Executor runs one swap at a time.
type Executor struct {
	builder        Builder
	fee            *client.PlatformFee
	confirmer      *Confirmer
	wait           bool
	confirmTimeout time.Duration
	onState        func(State, error)
	log            *zap.Logger

	mu      sync.Mutex
	state   State
	lastErr error
}

// NewExecutor creates an executor that builds through b.
func NewExecutor(b Builder, opts ExecutorOptions) *Executor {
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	return &Executor{
		builder:        b,
		fee:            opts.Fee,
		confirmer:      opts.Confirmer,
		wait:           opts.WaitConfirmation && opts.Confirmer != nil,
		confirmTimeout: opts.ConfirmTimeout,
		onState:        opts.OnState,
		log:            logger.Named(opts.Logger, "executor"),
		state:          StateIdle,
	}
}

// State returns the current state and, when Failed, its error.
func (e *Executor) State() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.lastErr
}

// Dismiss returns a finished executor to Idle.
func (e *Executor) Dismiss() {
	e.mu.Lock()
	if e.state.InProgress() {
		e.mu.Unlock()
		return
	}
	e.state = StateIdle
	e.lastErr = nil
	e.mu.Unlock()
	e.emit(StateIdle, nil)
}

// begin claims the executor for a new swap.
func (e *Executor) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.InProgress() {
		return apperror.New(apperror.CodeSwapInProgress)
	}
	e.state = StateBuilding
	e.lastErr = nil
	return nil
}

func (e *Executor) set(s State, err error) {
	e.mu.Lock()
	e.state = s
	e.lastErr = err
	e.mu.Unlock()
	e.emit(s, err)
}

func (e *Executor) emit(s State, err error) {
	if e.onState != nil {
		e.onState(s, err)
	}
}

func (e *Executor) fail(err error) error {
	e.set(StateFailed, err)
	metrics.SwapOutcomes.WithLabelValues(string(StateFailed)).Inc()
	e.log.Warn("swap failed", zap.String("code", string(apperror.GetCode(err))), zap.Error(err))
	return err
}

// Execute builds, signs and submits quote with s. Once the signer has
// been invoked the call runs to completion even if ctx is cancelled.
func (e *Executor) Execute(ctx context.Context, s signer.Signer, quote *types.Quote) (*Submission, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	e.emit(StateBuilding, nil)

	if s == nil {
		return nil, e.fail(apperror.New(apperror.CodeNoSigner))
	}
	if quote == nil {
		return nil, e.fail(apperror.New(apperror.CodeNoQuote))
	}

	user := s.PublicKey().String()
	resp, err := e.builder.BuildSwapTransaction(ctx, quote, user, e.fee)
	if err != nil {
		return nil, e.fail(apperror.Wrap(err, apperror.CodeSwapBuildFailed, "build"))
	}

	tx, err := decodeTransaction(resp.SwapTransaction)
	if err != nil {
		return nil, e.fail(apperror.New(apperror.CodeSwapBuildFailed,
			apperror.WithMessage("Failed to process transaction"), apperror.WithCause(err)))
	}

	e.set(StateAwaitingSignature, nil)
	e.log.Debug("requesting signature",
		zap.String("method", s.Method()),
		zap.String("user", user))

	sig, err := s.Submit(context.WithoutCancel(ctx), tx)
	if err != nil {
		return nil, e.fail(apperror.Wrap(err, apperror.CodeSigningFailed, "sign"))
	}

	e.set(StateSubmitted, nil)
	sub := &Submission{Signature: sig, Method: s.Method(), Status: types.StatusPending}

	if e.wait {
		st, err := e.confirmer.Wait(context.WithoutCancel(ctx), sig, e.confirmTimeout)
		switch {
		case err == nil && st.Status == types.StatusFailed:
			return nil, e.fail(apperror.New(apperror.CodeSubmissionFailed,
				apperror.WithMessage(fmt.Sprintf("Transaction %s failed on-chain: %s", sig, st.Err))))
		case err == nil:
			sub.Status = st.Status
		case errors.Is(err, ErrConfirmTimeout):
			sub.Warning = "Transaction submitted but not yet confirmed; check its status later"
		default:
			sub.Warning = "Could not check confirmation: " + err.Error()
		}
	}

	e.set(StateConfirmed, nil)
	metrics.SwapOutcomes.WithLabelValues(string(StateConfirmed)).Inc()
	e.log.Info("swap submitted",
		zap.String("signature", sig),
		zap.String("method", sub.Method),
		zap.String("status", string(sub.Status)))
	return sub, nil
}

// decodeTransaction parses the aggregator's base64 wire transaction.
func decodeTransaction(b64 string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	return solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
}
