package cmd

import (
	"context"
	"time"

	"github.com/briandowns/spinner"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"sol-swap/config"
	"sol-swap/pkg/backend"
	"sol-swap/pkg/chain"
	"sol-swap/pkg/client"
	"sol-swap/pkg/journal"
	"sol-swap/pkg/logger"
	"sol-swap/pkg/signer"
	"sol-swap/pkg/swap"
	"sol-swap/pkg/tokens"
	"sol-swap/pkg/types"
)

// app holds the clients shared by the commands.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	jupiter  *client.JupiterClient
	chain    *chain.Client
	registry *tokens.Registry
	resolver *tokens.Resolver
	backend  *backend.Client
}

func newApp(cfg *config.Config) (*app, error) {
	log := logger.Log
	rpc, err := chain.New(chain.Options{
		URLs:          append([]string{cfg.RPCURL}, cfg.RPCFallbacks...),
		Commitment:    cfg.Wallet.Commitment,
		SkipPreflight: cfg.Wallet.SkipPreflight,
		Logger:        log,
	})
	if err != nil {
		return nil, err
	}
	registry := tokens.NewRegistry(cfg.Network)
	return &app{
		cfg: cfg,
		log: log,
		jupiter: client.NewJupiterClient(client.Options{
			BaseURL:           cfg.AggregatorURL,
			Timeout:           cfg.QuoteTimeout,
			RequestsPerMinute: cfg.QuoteRequestsPerMinute,
			Logger:            log,
		}),
		chain:    rpc,
		registry: registry,
		resolver: &tokens.Resolver{
			Registry: registry,
			Searcher: tokens.NewSearcher(cfg.TokenSearchURL, nil, log),
		},
		backend: backend.New(backend.Options{
			BaseURL: cfg.BackendURL,
			Token:   cfg.BackendToken,
			Logger:  log,
		}),
	}, nil
}

func mustApp() *app {
	a, err := newApp(config.Get())
	if err != nil {
		fail(err)
	}
	return a
}

func (a *app) connectSigner(ctx context.Context) (signer.Signer, error) {
	d := signer.ConfigDetector{Config: a.cfg.Wallet, Submitter: a.chain}
	return signer.Connect(ctx, d, a.chain, a.log)
}

func (a *app) platformFee() *client.PlatformFee {
	if a.cfg.FeeAccount == "" || a.cfg.PlatformFeeBps <= 0 {
		return nil
	}
	return &client.PlatformFee{Account: a.cfg.FeeAccount, Bps: a.cfg.PlatformFeeBps}
}

func (a *app) confirmer() *swap.Confirmer {
	return swap.NewConfirmer(a.chain, swap.DefaultPollInterval, a.log)
}

func (a *app) executor(onState func(swap.State, error)) *swap.Executor {
	return swap.NewExecutor(a.jupiter, swap.ExecutorOptions{
		Fee:              a.platformFee(),
		Confirmer:        a.confirmer(),
		WaitConfirmation: a.cfg.WaitConfirmation,
		ConfirmTimeout:   a.cfg.ConfirmTimeout,
		OnState:          onState,
		Logger:           a.log,
	})
}

func (a *app) openJournal() *journal.Journal {
	j, err := journal.Open(a.cfg.JournalPath)
	if err != nil {
		a.log.Warn("journal unavailable", zap.Error(err))
		return nil
	}
	return j
}

// reconciler saves records to the backend and journal. refresh, when set,
// runs in the background after each successful swap.
func (a *app) reconciler(j *journal.Journal, refresh func(context.Context)) *swap.Reconciler {
	opts := swap.ReconcilerOptions{
		Records:         a.backend,
		RefreshBalances: refresh,
		Logger:          a.log,
	}
	if j != nil {
		opts.Journal = j
	}
	return swap.NewReconciler(opts)
}

// balances reads owner's balance of each token, skipping failures.
func (a *app) balances(ctx context.Context, owner solana.PublicKey, toks ...types.Token) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	out := make(map[string]string, len(toks))
	for _, tok := range toks {
		bal, err := a.chain.Balance(ctx, owner, tok)
		if err != nil {
			a.log.Debug("balance lookup failed", zap.String("token", tok.Symbol), zap.Error(err))
			continue
		}
		out[tok.Symbol] = tokens.FormatAmount(bal, 4)
	}
	return out
}

func newSpinner(suffix string, enabled bool) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	if enabled {
		s.Start()
	}
	return s
}
