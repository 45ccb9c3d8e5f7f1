package signer

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"sol-swap/config"
	"sol-swap/pkg/apperror"
)

// Keypair is a locally held signing key.
type Keypair struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

// NewKeypair wraps an existing private key.
func NewKeypair(key solana.PrivateKey) *Keypair {
	return &Keypair{privateKey: key, publicKey: key.PublicKey()}
}

// LoadKeypair reads the key named by cfg: a solana-keygen JSON file or a
// base58 private key.
func LoadKeypair(cfg config.WalletConfig) (*Keypair, error) {
	var (
		key solana.PrivateKey
		err error
	)
	switch {
	case cfg.KeypairPath != "":
		key, err = solana.PrivateKeyFromSolanaKeygenFile(cfg.KeypairPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read keypair file: %w", err)
		}
	case cfg.PrivateKey != "":
		key, err = solana.PrivateKeyFromBase58(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	default:
		return nil, apperror.New(apperror.CodeNoSigner)
	}
	return NewKeypair(key), nil
}

// PublicKey returns the wallet address.
func (k *Keypair) PublicKey() solana.PublicKey {
	return k.publicKey
}

func (k *Keypair) sign(tx *solana.Transaction) error {
	if !tx.IsSigner(k.publicKey) {
		return apperror.New(apperror.CodeSigningFailed,
			apperror.WithMessage("transaction does not require this wallet's signature"))
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(k.publicKey) {
			return &k.privateKey
		}
		return nil
	})
	if err != nil {
		return apperror.New(apperror.CodeSigningFailed, apperror.WithMessage("failed to sign transaction"), apperror.WithCause(err))
	}
	return nil
}

// phantomWallet signs and submits in one call and answers with an object
// carrying the signature.
type phantomWallet struct {
	*Keypair
	sub Submitter
}

func (w *phantomWallet) SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (any, error) {
	if err := w.sign(tx); err != nil {
		return nil, err
	}
	sig, err := w.sub.SendTransaction(ctx, tx)
	if err != nil {
		return nil, apperror.New(apperror.CodeSubmissionFailed, apperror.WithCause(err))
	}
	return map[string]any{
		"signature": sig.String(),
		"publicKey": w.PublicKey().String(),
	}, nil
}

// solflareWallet exposes sendTransaction and answers with a bare signature.
type solflareWallet struct {
	*Keypair
	sub Submitter
}

func (w *solflareWallet) SendTransaction(ctx context.Context, tx *solana.Transaction) (any, error) {
	if err := w.sign(tx); err != nil {
		return nil, err
	}
	sig, err := w.sub.SendTransaction(ctx, tx)
	if err != nil {
		return nil, apperror.New(apperror.CodeSubmissionFailed, apperror.WithCause(err))
	}
	return sig, nil
}

// genericWallet can only sign.
type genericWallet struct {
	*Keypair
}

func (w *genericWallet) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if err := w.sign(tx); err != nil {
		return nil, err
	}
	return tx, nil
}
