package swap

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"sol-swap/pkg/logger"
	"sol-swap/pkg/types"
)

const DefaultPollInterval = 500 * time.Millisecond

// ErrConfirmTimeout is returned by Wait when the signature is still
// pending at the deadline.
var ErrConfirmTimeout = errors.New("timed out waiting for confirmation")

// StatusSource reports ledger status for signatures.
type StatusSource interface {
	SignatureStatuses(ctx context.Context, signatures ...string) ([]types.SignatureStatus, error)
}

// Confirmer polls the ledger for the outcome of a submitted swap.
type Confirmer struct {
	src      StatusSource
	interval time.Duration
	log      *zap.Logger
}

// NewConfirmer creates a Confirmer polling src every interval.
func NewConfirmer(src StatusSource, interval time.Duration, log *zap.Logger) *Confirmer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Confirmer{src: src, interval: interval, log: logger.Named(log, "confirmer")}
}

// Check returns the current status of signature.
func (c *Confirmer) Check(ctx context.Context, signature string) (types.SignatureStatus, error) {
	st, err := c.src.SignatureStatuses(ctx, signature)
	if err != nil {
		return types.SignatureStatus{Signature: signature, Status: types.StatusPending}, err
	}
	if len(st) == 0 {
		return types.SignatureStatus{Signature: signature, Status: types.StatusPending}, nil
	}
	return st[0], nil
}

// Watch polls until signature leaves pending or ctx ends, calling fn with
// every status observed. RPC errors are logged and polling continues.
func (c *Confirmer) Watch(ctx context.Context, signature string, fn func(types.SignatureStatus)) (types.SignatureStatus, error) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	last := types.SignatureStatus{Signature: signature, Status: types.StatusPending}
	for {
		st, err := c.Check(ctx, signature)
		if err != nil {
			c.log.Debug("status check failed", zap.String("signature", signature), zap.Error(err))
		} else {
			last = st
			if fn != nil {
				fn(st)
			}
			if st.Status != types.StatusPending {
				return st, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Wait is Watch bounded by timeout. A signature still pending at the
// deadline yields ErrConfirmTimeout.
func (c *Confirmer) Wait(ctx context.Context, signature string, timeout time.Duration) (types.SignatureStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	st, err := c.Watch(ctx, signature, nil)
	if errors.Is(err, context.DeadlineExceeded) {
		return st, ErrConfirmTimeout
	}
	return st, err
}
