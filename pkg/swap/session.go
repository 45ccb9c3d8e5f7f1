package swap

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/intent"
	"sol-swap/pkg/scheduler"
	"sol-swap/pkg/signer"
	"sol-swap/pkg/tokens"
	"sol-swap/pkg/types"
)

// BalanceSource reads wallet balances.
type BalanceSource interface {
	Balance(ctx context.Context, owner solana.PublicKey, tok types.Token) (decimal.Decimal, error)
}

// SessionOptions wires a Session. Signer and Balances may be nil.
type SessionOptions struct {
	Scheduler  *scheduler.Scheduler
	Executor   *Executor
	Reconciler *Reconciler
	Signer     signer.Signer
	Balances   BalanceSource
}

// Session is one user's trade form: the intent being edited, the quote the
// scheduler keeps for it, and the swap action.
type Session struct {
	sched    *scheduler.Scheduler
	exec     *Executor
	rec      *Reconciler
	signer   signer.Signer
	balances BalanceSource

	mu     sync.Mutex
	intent types.TradeIntent
}

// NewSession creates a session starting from initial.
func NewSession(initial types.TradeIntent, opts SessionOptions) *Session {
	return &Session{
		sched:    opts.Scheduler,
		exec:     opts.Executor,
		rec:      opts.Reconciler,
		signer:   opts.Signer,
		balances: opts.Balances,
		intent:   initial,
	}
}

// Intent returns the intent being edited.
func (s *Session) Intent() types.TradeIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intent
}

// Update applies fn to the intent and hands the result to the scheduler.
func (s *Session) Update(fn func(*types.TradeIntent)) types.TradeIntent {
	s.mu.Lock()
	fn(&s.intent)
	in := s.intent
	s.mu.Unlock()
	s.sched.OnIntentChange(in)
	return in
}

// SetAmount replaces the amount text.
func (s *Session) SetAmount(amount string) {
	s.Update(func(in *types.TradeIntent) { in.Amount = amount })
}

// SetPair replaces both tokens.
func (s *Session) SetPair(input, output types.Token) {
	s.Update(func(in *types.TradeIntent) {
		in.InputToken = input
		in.OutputToken = output
	})
}

// Flip exchanges the input and output tokens.
func (s *Session) Flip() {
	s.Update(func(in *types.TradeIntent) {
		in.InputToken, in.OutputToken = in.OutputToken, in.InputToken
	})
}

// SetSlippage sets the tolerance in basis points.
func (s *Session) SetSlippage(bps int) error {
	if bps < 0 || bps > intent.MaxSlippageBps {
		return apperror.Validation("slippage must be between 0 and 10000 bps")
	}
	s.Update(func(in *types.TradeIntent) { in.SlippageBps = bps })
	return nil
}

// Max sets the amount to the full spendable balance of the input token.
func (s *Session) Max(ctx context.Context) (string, error) {
	return s.fromBalance(ctx, func(bal decimal.Decimal, tok types.Token) decimal.Decimal {
		return tokens.MaxSpendable(bal, tokens.IsNative(tok)).Truncate(tok.Decimals)
	})
}

// Half sets the amount to half of the spendable balance.
func (s *Session) Half(ctx context.Context) (string, error) {
	return s.fromBalance(ctx, func(bal decimal.Decimal, tok types.Token) decimal.Decimal {
		return tokens.Half(bal, tokens.IsNative(tok), tok.Decimals)
	})
}

func (s *Session) fromBalance(ctx context.Context, pick func(decimal.Decimal, types.Token) decimal.Decimal) (string, error) {
	if s.signer == nil {
		return "", apperror.New(apperror.CodeNoSigner)
	}
	if s.balances == nil {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage("no RPC connection available for balances"))
	}
	tok := s.Intent().InputToken
	if tok.IsZero() {
		return "", apperror.Validation("select an input token first")
	}
	bal, err := s.balances.Balance(ctx, s.signer.PublicKey(), tok)
	if err != nil {
		return "", apperror.Wrap(err, apperror.CodeInternalError, "balance")
	}
	amount := pick(bal, tok)
	text := ""
	if amount.IsPositive() {
		text = amount.String()
	}
	s.SetAmount(text)
	return text, nil
}

// Quote returns the scheduler's state for the current intent.
func (s *Session) Quote() scheduler.State {
	return s.sched.Current()
}

// CanSwap reports whether the swap action is enabled: a quote for the
// current intent, a connected signer and no swap running.
func (s *Session) CanSwap() bool {
	if s.signer == nil {
		return false
	}
	if st, _ := s.exec.State(); st.InProgress() {
		return false
	}
	cur := s.sched.Current()
	return cur.Quote != nil && cur.Err == nil && cur.Intent == s.Intent()
}

// Swap executes the current quote. On success the quote and amount are
// cleared. The returned outcome is never an unhandled error.
func (s *Session) Swap(ctx context.Context) Outcome {
	cur := s.sched.Current()
	quote := cur.Quote
	if cur.Intent != s.Intent() {
		quote = nil
	}

	sub, err := s.exec.Execute(ctx, s.signer, quote)
	if err != nil {
		return s.rec.OnFailure(err)
	}

	s.SetAmount("")
	return s.rec.OnSuccess(ctx, sub, cur.Intent, quote, s.signer.PublicKey().String())
}

// Dismiss clears a finished swap so another can start.
func (s *Session) Dismiss() {
	s.exec.Dismiss()
}

// Close stops the scheduler.
func (s *Session) Close() {
	s.sched.Close()
}
