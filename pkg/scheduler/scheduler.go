// Package scheduler coalesces rapid trade intent edits into a single quote
// request and discards responses for superseded intents.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"sol-swap/pkg/intent"
	"sol-swap/pkg/logger"
	"sol-swap/pkg/metrics"
	"sol-swap/pkg/types"
)

// DefaultDelay is the quiet period after the last edit before fetching.
const DefaultDelay = 500 * time.Millisecond

// QuoteFetcher fetches a single quote.
type QuoteFetcher interface {
	GetQuote(ctx context.Context, input, output types.Token, amount string, slippageBps int) (*types.Quote, error)
}

// State is a snapshot of the scheduler. Quote and Err always belong to
// Intent, identified by Generation.
type State struct {
	Generation uint64
	Intent     types.TradeIntent
	Quote      *types.Quote
	Err        error
	Loading    bool
}

// Options configures a Scheduler.
type Options struct {
	Delay    time.Duration
	OnUpdate func(State)
	Logger   *zap.Logger
}

// Scheduler owns the current quote. Only the latest intent generation may
// write it.
type Scheduler struct {
	fetcher  QuoteFetcher
	delay    time.Duration
	onUpdate func(State)
	log      *zap.Logger

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	state  State
	closed bool

	notifyMu      sync.Mutex
	lastDelivered uint64
}

// New creates a scheduler that fetches through f.
func New(f QuoteFetcher, opts Options) *Scheduler {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	return &Scheduler{
		fetcher:  f,
		delay:    opts.Delay,
		onUpdate: opts.OnUpdate,
		log:      logger.Named(opts.Logger, "scheduler"),
	}
}

// OnIntentChange replaces the current intent. A valid intent is quoted
// after the quiet period; an invalid or empty one clears the quote now.
func (s *Scheduler) OnIntentChange(in types.TradeIntent) {
	s.schedule(in, s.delay)
}

// Refresh re-quotes the current intent without waiting.
func (s *Scheduler) Refresh() {
	s.mu.Lock()
	in := s.state.Intent
	s.mu.Unlock()
	s.schedule(in, 0)
}

func (s *Scheduler) schedule(in types.TradeIntent, delay time.Duration) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	s.stopLocked()
	s.state = State{Generation: gen, Intent: in}

	if _, err := intent.Check(in); err != nil {
		if !errors.Is(err, intent.ErrEmptyAmount) {
			s.state.Err = err
		}
		snap := s.state
		s.mu.Unlock()
		s.notify(snap)
		return
	}

	if delay > 0 {
		s.timer = time.AfterFunc(delay, func() { s.fire(gen) })
	}
	snap := s.state
	s.mu.Unlock()
	s.notify(snap)
	if delay <= 0 {
		go s.fire(gen)
	}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = nil
	s.state.Loading = true
	in := s.state.Intent
	snap := s.state
	s.mu.Unlock()
	s.notify(snap)

	s.log.Debug("fetching quote",
		zap.Uint64("generation", gen),
		zap.String("input", in.InputToken.Symbol),
		zap.String("output", in.OutputToken.Symbol),
		zap.String("amount", in.Amount))

	quote, err := s.fetcher.GetQuote(ctx, in.InputToken, in.OutputToken, in.Amount, in.SlippageBps)
	cancel()

	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		metrics.QuoteRequests.WithLabelValues("stale").Inc()
		s.log.Debug("discarding stale quote", zap.Uint64("generation", gen))
		return
	}
	s.cancel = nil
	s.state.Loading = false
	if err != nil {
		s.state.Quote = nil
		s.state.Err = err
	} else {
		s.state.Quote = quote
		s.state.Err = nil
	}
	snap = s.state
	s.mu.Unlock()
	s.notify(snap)
}

// stopLocked clears the pending timer and cancels any in-flight fetch.
func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// notify delivers snapshots in generation order; an older generation is
// never delivered after a newer one.
func (s *Scheduler) notify(snap State) {
	if s.onUpdate == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Generation < s.lastDelivered {
		return
	}
	s.lastDelivered = snap.Generation
	s.onUpdate(snap)
}

// Current returns the latest state.
func (s *Scheduler) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Quote returns the current quote, or nil.
func (s *Scheduler) Quote() *types.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Quote
}

// Reset drops the current intent and quote.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.stopLocked()
	s.state = State{Generation: s.gen}
	snap := s.state
	s.mu.Unlock()
	s.notify(snap)
}

// Close stops the scheduler. Pending and in-flight fetches are abandoned.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	s.stopLocked()
}
