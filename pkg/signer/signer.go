// Package signer adapts wallet capability shapes to a single Signer that
// returns a submission signature.
package signer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"sol-swap/pkg/apperror"
)

// Wallet is the minimal handle every wallet exposes.
type Wallet interface {
	PublicKey() solana.PublicKey
}

// SignAndSender signs and submits in one call.
type SignAndSender interface {
	SignAndSendTransaction(ctx context.Context, tx *solana.Transaction) (any, error)
}

// Sender submits a transaction, signing it internally.
type Sender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (any, error)
}

// TransactionSigner signs without submitting.
type TransactionSigner interface {
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// Submitter sends signed transactions to the ledger.
type Submitter interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Signer approves and submits a transaction, returning its signature.
type Signer interface {
	PublicKey() solana.PublicKey
	Submit(ctx context.Context, tx *solana.Transaction) (string, error)
	// Method names the wallet capability in use.
	Method() string
}

// New picks the adapter for the first capability w exposes, in order:
// sign-and-send, send, sign then submit through sub.
func New(w Wallet, sub Submitter) (Signer, error) {
	if w == nil {
		return nil, apperror.New(apperror.CodeNoSigner)
	}
	switch v := w.(type) {
	case SignAndSender:
		return &signAndSendAdapter{wallet: w, impl: v}, nil
	case Sender:
		return &sendAdapter{wallet: w, impl: v}, nil
	case TransactionSigner:
		if sub == nil {
			return nil, apperror.New(apperror.CodeSigningFailed,
				apperror.WithMessage("Wallet can only sign and no RPC connection is available to submit"))
		}
		return &signThenSubmitAdapter{wallet: w, impl: v, sub: sub}, nil
	}
	return nil, apperror.New(apperror.CodeSigningFailed,
		apperror.WithMessage("Wallet does not support transaction sending"))
}

type signAndSendAdapter struct {
	wallet Wallet
	impl   SignAndSender
}

func (a *signAndSendAdapter) PublicKey() solana.PublicKey { return a.wallet.PublicKey() }
func (a *signAndSendAdapter) Method() string              { return "signAndSendTransaction" }

func (a *signAndSendAdapter) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	res, err := a.impl.SignAndSendTransaction(ctx, tx)
	if err != nil {
		return "", signingError(err)
	}
	return normalize(res)
}

type sendAdapter struct {
	wallet Wallet
	impl   Sender
}

func (a *sendAdapter) PublicKey() solana.PublicKey { return a.wallet.PublicKey() }
func (a *sendAdapter) Method() string              { return "sendTransaction" }

func (a *sendAdapter) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	res, err := a.impl.SendTransaction(ctx, tx)
	if err != nil {
		return "", signingError(err)
	}
	return normalize(res)
}

type signThenSubmitAdapter struct {
	wallet Wallet
	impl   TransactionSigner
	sub    Submitter
}

func (a *signThenSubmitAdapter) PublicKey() solana.PublicKey { return a.wallet.PublicKey() }
func (a *signThenSubmitAdapter) Method() string              { return "signTransaction" }

func (a *signThenSubmitAdapter) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	signed, err := a.impl.SignTransaction(ctx, tx)
	if err != nil {
		return "", signingError(err)
	}
	if signed == nil {
		return "", apperror.New(apperror.CodeSigningFailed, apperror.WithMessage("Wallet returned no signed transaction"))
	}
	sig, err := a.sub.SendTransaction(ctx, signed)
	if err != nil {
		return "", apperror.New(apperror.CodeSubmissionFailed, apperror.WithCause(err))
	}
	return sig.String(), nil
}

func signingError(err error) error {
	if apperror.GetCode(err) != apperror.CodeUnknownError {
		return err
	}
	return apperror.New(apperror.CodeSigningFailed, apperror.WithMessage(err.Error()), apperror.WithCause(err))
}

// Result is the object form some wallets return.
type Result struct {
	Signature any    `json:"signature"`
	PublicKey string `json:"publicKey,omitempty"`
}

// normalize reduces a wallet result to a base58 signature string.
func normalize(res any) (string, error) {
	var sig string
	switch v := res.(type) {
	case string:
		sig = v
	case solana.Signature:
		sig = v.String()
	case *solana.Signature:
		if v != nil {
			sig = v.String()
		}
	case Result:
		return normalize(v.Signature)
	case *Result:
		if v != nil {
			return normalize(v.Signature)
		}
	case map[string]any:
		return normalize(v["signature"])
	case map[string]string:
		sig = v["signature"]
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return "", malformed(res)
		}
		return normalize(decoded)
	case fmt.Stringer:
		sig = v.String()
	}
	if sig == "" {
		return "", malformed(res)
	}
	return sig, nil
}

func malformed(res any) error {
	return apperror.New(apperror.CodeSigningFailed,
		apperror.WithMessage(fmt.Sprintf("wallet returned an unrecognized result of type %T", res)))
}
