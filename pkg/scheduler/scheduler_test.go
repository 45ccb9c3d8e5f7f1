package scheduler

import (
	"context"
	"sync"
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

func intentFor(amount string) types.TradeIntent {
	return types.TradeIntent{InputToken: sol, OutputToken: usdc, Amount: amount, SlippageBps: 50}
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, amount string) (*types.Quote, error)
}

func (f *fakeFetcher) GetQuote(ctx context.Context, input, output types.Token, amount string, slippageBps int) (*types.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, amount)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, amount)
	}
	return &types.Quote{InAmount: amount, OutAmount: amount}, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestDebounceIssuesSingleRequestWithLastIntent(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, Options{Delay: 50 * time.Millisecond})
	defer s.Close()

	for _, amount := range []string{"1", "1.", "1.5", "1.52"} {
		s.OnIntentChange(intentFor(amount))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return s.Quote() != nil }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []string{"1.52"}, f.Calls())
	assert.Equal(t, "1.52", s.Quote().InAmount)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{fn: func(ctx context.Context, amount string) (*types.Quote, error) {
		if amount == "1" {
			<-release // slow, ignores cancellation
		}
		return &types.Quote{InAmount: amount, OutAmount: amount}, nil
	}}
	s := New(f, Options{Delay: time.Millisecond})
	defer s.Close()

	s.OnIntentChange(intentFor("1"))
	require.Eventually(t, func() bool { return len(f.Calls()) == 1 }, time.Second, time.Millisecond)

	s.OnIntentChange(intentFor("2"))
	require.Eventually(t, func() bool { return s.Quote() != nil }, time.Second, time.Millisecond)
	assert.Equal(t, "2", s.Quote().InAmount)

	close(release)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "2", s.Quote().InAmount)
	assert.Equal(t, "2", s.Current().Intent.Amount)
}

func TestSupersededFetchIsCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	f := &fakeFetcher{fn: func(ctx context.Context, amount string) (*types.Quote, error) {
		if amount == "1" {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return &types.Quote{InAmount: amount, OutAmount: amount}, nil
	}}
	s := New(f, Options{Delay: time.Millisecond})
	defer s.Close()

	s.OnIntentChange(intentFor("1"))
	require.Eventually(t, func() bool { return len(f.Calls()) == 1 }, time.Second, time.Millisecond)
	s.OnIntentChange(intentFor("3"))

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}
	require.Eventually(t, func() bool { return s.Quote() != nil }, time.Second, time.Millisecond)
	assert.NoError(t, s.Current().Err)
}

func TestInvalidIntentClearsImmediately(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, Options{Delay: 20 * time.Millisecond})
	defer s.Close()

	s.OnIntentChange(intentFor("1"))
	require.Eventually(t, func() bool { return s.Quote() != nil }, time.Second, time.Millisecond)

	s.OnIntentChange(intentFor("2"))
	s.OnIntentChange(intentFor(""))
	assert.Nil(t, s.Quote())
	assert.NoError(t, s.Current().Err)

	s.OnIntentChange(intentFor("-4"))
	assert.Nil(t, s.Quote())
	assert.Equal(t, apperror.CodeValidationError, apperror.GetCode(s.Current().Err))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"1"}, f.Calls())
}

func TestInvalidAmountReportedOnce(t *testing.T) {
	var mu sync.Mutex
	var updates []State
	s := New(&fakeFetcher{}, Options{Delay: time.Millisecond, OnUpdate: func(st State) {
		mu.Lock()
		updates = append(updates, st)
		mu.Unlock()
	}})
	defer s.Close()

	s.OnIntentChange(intentFor("abc"))
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 1)
	assert.False(t, updates[0].Loading)
	assert.Nil(t, updates[0].Quote)
	assert.Equal(t, apperror.CodeValidationError, apperror.GetCode(updates[0].Err))
}

func TestErrorAttachesToCurrentGeneration(t *testing.T) {
	f := &fakeFetcher{fn: func(ctx context.Context, amount string) (*types.Quote, error) {
		return nil, apperror.New(apperror.CodeQuoteFailed, apperror.WithMessage("rate limited"))
	}}
	var mu sync.Mutex
	var updates []State
	s := New(f, Options{Delay: time.Millisecond, OnUpdate: func(st State) {
		mu.Lock()
		updates = append(updates, st)
		mu.Unlock()
	}})
	defer s.Close()

	s.OnIntentChange(intentFor("1"))
	require.Eventually(t, func() bool { return s.Current().Err != nil }, time.Second, time.Millisecond)

	st := s.Current()
	assert.Nil(t, st.Quote)
	assert.False(t, st.Loading)
	assert.Equal(t, "rate limited", apperror.UserMessage(st.Err))

	mu.Lock()
	defer mu.Unlock()
	last := updates[len(updates)-1]
	assert.Equal(t, st.Generation, last.Generation)
	assert.Equal(t, "rate limited", apperror.UserMessage(last.Err))
	for i := 1; i < len(updates); i++ {
		assert.GreaterOrEqual(t, updates[i].Generation, updates[i-1].Generation)
	}
}

func TestResetAndRefresh(t *testing.T) {
	f := &fakeFetcher{}
	s := New(f, Options{Delay: time.Hour})
	defer s.Close()

	s.OnIntentChange(intentFor("1"))
	s.Refresh()
	require.Eventually(t, func() bool { return s.Quote() != nil }, time.Second, time.Millisecond)

	s.Reset()
	assert.Nil(t, s.Quote())
	assert.Equal(t, "", s.Current().Intent.Amount)
}
