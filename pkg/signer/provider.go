package signer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sol-swap/config"
	"sol-swap/pkg/apperror"
	"sol-swap/pkg/logger"
)

// Kind names a wallet provider family.
type Kind string

const (
	KindPhantom  Kind = "phantom"
	KindSolflare Kind = "solflare"
	KindGeneric  Kind = "generic"
)

// ParseKind validates a configured provider name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindPhantom, KindSolflare, KindGeneric:
		return k, nil
	case "":
		return KindGeneric, nil
	default:
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithMessage(fmt.Sprintf("unknown wallet kind %q", s)))
	}
}

// Provider is a wallet source found at session start.
type Provider interface {
	Kind() Kind
	Connect(ctx context.Context) (Wallet, error)
}

// Detector chooses the provider for a session.
type Detector interface {
	Detect(ctx context.Context) (Provider, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context) (Provider, error)

func (f DetectorFunc) Detect(ctx context.Context) (Provider, error) {
	return f(ctx)
}

// KeypairProvider serves a local keypair in the shape of the given kind.
type KeypairProvider struct {
	kind    Kind
	keypair *Keypair
	sub     Submitter
}

// NewKeypairProvider creates a provider for kp.
func NewKeypairProvider(kind Kind, kp *Keypair, sub Submitter) *KeypairProvider {
	return &KeypairProvider{kind: kind, keypair: kp, sub: sub}
}

func (p *KeypairProvider) Kind() Kind { return p.kind }

func (p *KeypairProvider) Connect(context.Context) (Wallet, error) {
	switch p.kind {
	case KindPhantom:
		return &phantomWallet{Keypair: p.keypair, sub: p.sub}, nil
	case KindSolflare:
		return &solflareWallet{Keypair: p.keypair, sub: p.sub}, nil
	default:
		return &genericWallet{Keypair: p.keypair}, nil
	}
}

// ConfigDetector resolves the provider from wallet configuration.
type ConfigDetector struct {
	Config    config.WalletConfig
	Submitter Submitter
}

func (d ConfigDetector) Detect(context.Context) (Provider, error) {
	if !d.Config.Configured() {
		return nil, apperror.New(apperror.CodeNoSigner,
			apperror.WithMessage("No wallet connected. Set wallet.keypair_path or wallet.private_key"))
	}
	kind, err := ParseKind(d.Config.Kind)
	if err != nil {
		return nil, err
	}
	kp, err := LoadKeypair(d.Config)
	if err != nil {
		return nil, apperror.New(apperror.CodeNoSigner,
			apperror.WithMessage("Failed to load wallet: "+err.Error()), apperror.WithCause(err))
	}
	return NewKeypairProvider(kind, kp, d.Submitter), nil
}

// Connect runs detection once and returns the session's signer.
func Connect(ctx context.Context, d Detector, sub Submitter, log *zap.Logger) (Signer, error) {
	p, err := d.Detect(ctx)
	if err != nil {
		return nil, err
	}
	w, err := p.Connect(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeNoSigner, "wallet connect")
	}
	s, err := New(w, sub)
	if err != nil {
		return nil, err
	}
	logger.Named(log, "signer").Info("wallet connected",
		zap.String("kind", string(p.Kind())),
		zap.String("method", s.Method()),
		zap.String("address", s.PublicKey().String()))
	return s, nil
}
