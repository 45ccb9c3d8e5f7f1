package swap

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/journal"
	"sol-swap/pkg/logger"
	"sol-swap/pkg/metrics"
	"sol-swap/pkg/tokens"
	"sol-swap/pkg/types"
)

// OutcomeStatus is what the user is told about a finished swap.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// Outcome is the user-facing result of a swap. Warning is set when the
// swap succeeded but a follow-up step did not.
type Outcome struct {
	Status    OutcomeStatus
	Signature string
	Message   string
	Warning   string
	Record    *types.TransactionRecord
	Err       error
}

// RecordCreator persists transaction records.
type RecordCreator interface {
	Create(ctx context.Context, rec types.TransactionRecord) (*types.TransactionRecord, error)
}

// Ledger is the local record of submitted swaps.
type Ledger interface {
	Append(signature string, rec types.TransactionRecord) (*journal.Entry, error)
	MarkPersisted(signature, recordID string) error
}

// ReconcilerOptions configures a Reconciler. Every field is optional.
type ReconcilerOptions struct {
	Records RecordCreator
	Journal Ledger
	// RefreshBalances runs in the background after each success.
	RefreshBalances func(ctx context.Context)
	Logger          *zap.Logger
	Now             func() time.Time
}

// Reconciler turns executor results into user messages and records.
type Reconciler struct {
	records RecordCreator
	journal Ledger
	refresh func(ctx context.Context)
	log     *zap.Logger
	now     func() time.Time
}

// NewReconciler creates a Reconciler.
func NewReconciler(opts ReconcilerOptions) *Reconciler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		records: opts.Records,
		journal: opts.Journal,
		refresh: opts.RefreshBalances,
		log:     logger.Named(opts.Logger, "reconciler"),
		now:     opts.Now,
	}
}

// BuildRecord is the record saved for a submitted swap. Its status is
// always pending at creation.
func BuildRecord(signature string, in types.TradeIntent, q *types.Quote, wallet string, at time.Time) types.TransactionRecord {
	rec := types.TransactionRecord{
		WalletAddress: wallet,
		FromToken:     in.InputToken.Symbol,
		ToToken:       in.OutputToken.Symbol,
		FromAmount:    in.Amount,
		TxHash:        signature,
		Status:        types.StatusPending,
		FeeAmount:     "0",
		Slippage:      tokens.SlippagePercent(in.SlippageBps),
		CreatedAt:     &at,
	}
	if q != nil {
		rec.FromAmount = tokens.FormatRaw(q.InAmount, in.InputToken.Decimals)
		rec.ToAmount = tokens.FormatRaw(q.OutAmount, in.OutputToken.Decimals)
		rec.FeeAmount = FeeAmount(q, in.OutputToken)
		rec.Slippage = tokens.SlippagePercent(q.SlippageBps)
	}
	return rec
}

// OnSuccess saves the record for sub exactly once and schedules a balance
// refresh. A save failure is returned as a warning; the outcome stays a
// success.
func (r *Reconciler) OnSuccess(ctx context.Context, sub *Submission, in types.TradeIntent, q *types.Quote, wallet string) Outcome {
	out := Outcome{
		Status:    OutcomeSuccess,
		Signature: sub.Signature,
		Message:   "Swap submitted! Signature: " + sub.Signature,
		Warning:   sub.Warning,
	}
	if sub.Status == types.StatusCompleted {
		out.Message = "Swap confirmed! Signature: " + sub.Signature
	}

	rec := BuildRecord(sub.Signature, in, q, wallet, r.now().UTC())
	out.Record = &rec

	if r.journal != nil {
		if _, err := r.journal.Append(sub.Signature, rec); err != nil {
			r.log.Warn("failed to journal swap", zap.String("signature", sub.Signature), zap.Error(err))
		}
	}

	if r.records != nil {
		ctx := context.WithoutCancel(ctx)
		saved, err := r.records.Create(ctx, rec)
		if err != nil {
			metrics.RecordPersistence.WithLabelValues("error").Inc()
			r.log.Warn("failed to save transaction record",
				zap.String("signature", sub.Signature), zap.Error(err))
			out.Warning = joinWarning(out.Warning,
				"Swap succeeded but failed to save transaction record: "+apperror.UserMessage(err))
		} else {
			metrics.RecordPersistence.WithLabelValues("ok").Inc()
			out.Record = saved
			if r.journal != nil && saved.ID != "" {
				if err := r.journal.MarkPersisted(sub.Signature, saved.ID); err != nil {
					r.log.Warn("failed to update journal", zap.String("signature", sub.Signature), zap.Error(err))
				}
			}
		}
	}

	if r.refresh != nil {
		go r.refresh(context.WithoutCancel(ctx))
	}
	return out
}

// OnFailure maps a swap error to the message shown to the user.
func (r *Reconciler) OnFailure(err error) Outcome {
	return Outcome{Status: OutcomeError, Message: FailureMessage(err), Err: err}
}

// FailureMessage describes err for the user.
func FailureMessage(err error) string {
	msg := apperror.UserMessage(err)
	switch apperror.GetCode(err) {
	case apperror.CodeNoSigner:
		return "No wallet connected. Connect a wallet to swap"
	case apperror.CodeNoQuote:
		return "No quote available. Enter an amount and wait for a quote"
	case apperror.CodeSwapBuildFailed:
		return prefixed("Failed to build swap transaction", msg)
	case apperror.CodeSigningFailed:
		return msg
	case apperror.CodeSubmissionFailed:
		msg = prefixed("Transaction submission failed", msg)
		if !strings.Contains(msg, "explorer") {
			msg += ". Verify on an explorer before retrying"
		}
		return msg
	}
	return msg
}

func prefixed(prefix, msg string) string {
	if strings.HasPrefix(msg, prefix) {
		return msg
	}
	return prefix + ": " + msg
}

func joinWarning(a, b string) string {
	if a == "" {
		return b
	}
	return a + ". " + b
}
