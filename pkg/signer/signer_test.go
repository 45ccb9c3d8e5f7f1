package signer

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-swap/config"
	"sol-swap/pkg/apperror"
)

var testSig = solana.Signature{7, 7, 7}

type fakeSubmitter struct {
	calls int
	err   error
}

func (f *fakeSubmitter) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.calls++
	if f.err != nil {
		return solana.Signature{}, f.err
	}
	return testSig, nil
}

func newTx(t *testing.T, payer solana.PublicKey) *solana.Transaction {
	t.Helper()
	ix := system.NewTransferInstruction(1, payer, solana.NewWallet().PublicKey()).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	return tx
}

type pubOnly struct{ pk solana.PublicKey }

func (w pubOnly) PublicKey() solana.PublicKey { return w.pk }

type allCaps struct {
	pubOnly
	result any
	err    error
}

func (w allCaps) SignAndSendTransaction(context.Context, *solana.Transaction) (any, error) {
	return w.result, w.err
}
func (w allCaps) SendTransaction(context.Context, *solana.Transaction) (any, error) {
	return "send", nil
}
func (w allCaps) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	return tx, nil
}

type sendAndSign struct{ pubOnly }

func (w sendAndSign) SendTransaction(context.Context, *solana.Transaction) (any, error) {
	return testSig, nil
}
func (w sendAndSign) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	return tx, nil
}

type signOnly struct {
	pubOnly
	err error
}

func (w signOnly) SignTransaction(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	return tx, w.err
}

func TestNewPicksCapabilityByPriority(t *testing.T) {
	pk := solana.NewWallet().PublicKey()
	sub := &fakeSubmitter{}

	s, err := New(allCaps{pubOnly: pubOnly{pk}, result: "abc123"}, sub)
	require.NoError(t, err)
	assert.Equal(t, "signAndSendTransaction", s.Method())

	s, err = New(sendAndSign{pubOnly{pk}}, sub)
	require.NoError(t, err)
	assert.Equal(t, "sendTransaction", s.Method())

	s, err = New(signOnly{pubOnly: pubOnly{pk}}, sub)
	require.NoError(t, err)
	assert.Equal(t, "signTransaction", s.Method())

	_, err = New(pubOnly{pk}, sub)
	assert.Equal(t, apperror.CodeSigningFailed, apperror.GetCode(err))
	assert.Equal(t, "Wallet does not support transaction sending", apperror.UserMessage(err))

	_, err = New(nil, sub)
	assert.Equal(t, apperror.CodeNoSigner, apperror.GetCode(err))

	_, err = New(signOnly{pubOnly: pubOnly{pk}}, nil)
	assert.Equal(t, apperror.CodeSigningFailed, apperror.GetCode(err))
}

func TestSubmitNormalizesResults(t *testing.T) {
	pk := solana.NewWallet().PublicKey()
	cases := map[string]any{
		"bare string":    "abc123",
		"object":         map[string]any{"signature": "abc123", "publicKey": pk.String()},
		"string map":     map[string]string{"signature": "abc123"},
		"result struct":  Result{Signature: "abc123"},
		"result pointer": &Result{Signature: "abc123"},
	}
	for name, res := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := New(allCaps{pubOnly: pubOnly{pk}, result: res}, nil)
			require.NoError(t, err)
			sig, err := s.Submit(context.Background(), newTx(t, pk))
			require.NoError(t, err)
			assert.Equal(t, "abc123", sig)
		})
	}

	s, err := New(allCaps{pubOnly: pubOnly{pk}, result: testSig}, nil)
	require.NoError(t, err)
	sig, err := s.Submit(context.Background(), newTx(t, pk))
	require.NoError(t, err)
	assert.Equal(t, testSig.String(), sig)

	s, err = New(allCaps{pubOnly: pubOnly{pk}, result: map[string]any{"foo": 1}}, nil)
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), newTx(t, pk))
	assert.Equal(t, apperror.CodeSigningFailed, apperror.GetCode(err))
}

func TestSubmitRejection(t *testing.T) {
	pk := solana.NewWallet().PublicKey()
	s, err := New(allCaps{pubOnly: pubOnly{pk}, err: errors.New("User rejected the request")}, nil)
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), newTx(t, pk))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeSigningFailed, apperror.GetCode(err))
	assert.Equal(t, "User rejected the request", apperror.UserMessage(err))
}

func TestSignThenSubmit(t *testing.T) {
	pk := solana.NewWallet().PublicKey()
	sub := &fakeSubmitter{}
	s, err := New(signOnly{pubOnly: pubOnly{pk}}, sub)
	require.NoError(t, err)

	sig, err := s.Submit(context.Background(), newTx(t, pk))
	require.NoError(t, err)
	assert.Equal(t, testSig.String(), sig)
	assert.Equal(t, 1, sub.calls)

	sub.err = errors.New("blockhash not found")
	_, err = s.Submit(context.Background(), newTx(t, pk))
	assert.Equal(t, apperror.CodeSubmissionFailed, apperror.GetCode(err))

	s, err = New(signOnly{pubOnly: pubOnly{pk}, err: errors.New("User rejected the request")}, sub)
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), newTx(t, pk))
	assert.Equal(t, apperror.CodeSigningFailed, apperror.GetCode(err))
}

func TestConfigDetectorKinds(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	for kind, method := range map[string]string{
		"phantom":  "signAndSendTransaction",
		"solflare": "sendTransaction",
		"generic":  "signTransaction",
	} {
		t.Run(kind, func(t *testing.T) {
			sub := &fakeSubmitter{}
			d := ConfigDetector{
				Config:    config.WalletConfig{PrivateKey: key.String(), Kind: kind},
				Submitter: sub,
			}
			s, err := Connect(context.Background(), d, sub, nil)
			require.NoError(t, err)
			assert.Equal(t, method, s.Method())
			assert.Equal(t, key.PublicKey(), s.PublicKey())

			tx := newTx(t, key.PublicKey())
			sig, err := s.Submit(context.Background(), tx)
			require.NoError(t, err)
			assert.Equal(t, testSig.String(), sig)
			assert.Equal(t, 1, sub.calls)
			require.Len(t, tx.Signatures, 1)
			assert.False(t, tx.Signatures[0].IsZero())
			assert.NoError(t, tx.VerifySignatures())
		})
	}
}

func TestConfigDetectorWithoutKey(t *testing.T) {
	_, err := ConfigDetector{}.Detect(context.Background())
	assert.Equal(t, apperror.CodeNoSigner, apperror.GetCode(err))

	_, err = ConfigDetector{Config: config.WalletConfig{PrivateKey: "not-base58!"}}.Detect(context.Background())
	assert.Equal(t, apperror.CodeNoSigner, apperror.GetCode(err))

	_, err = ParseKind("backpack")
	assert.Error(t, err)
}

func TestKeypairRefusesForeignTransaction(t *testing.T) {
	kp := NewKeypair(solana.NewWallet().PrivateKey)
	w := &genericWallet{Keypair: kp}
	_, err := w.SignTransaction(context.Background(), newTx(t, solana.NewWallet().PublicKey()))
	assert.Equal(t, apperror.CodeSigningFailed, apperror.GetCode(err))
}
