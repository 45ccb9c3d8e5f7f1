package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-swap/pkg/types"
)

// openTestStore connects to SOL_SWAP_TEST_DATABASE_URL, skipping when unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("SOL_SWAP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test: SOL_SWAP_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestTransactionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	wallet := "wallet-" + uuid.NewString()

	rec, err := s.CreateTransaction(ctx, types.TransactionRecord{
		WalletAddress: wallet,
		FromToken:     "SOL",
		ToToken:       "USDC",
		FromAmount:    "1",
		ToAmount:      "150",
		TxHash:        "sig-1",
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, rec.Status)
	assert.Nil(t, rec.UpdatedAt)
	assert.Equal(t, "", rec.FeeAmount)

	_, err = s.UpdateTransaction(ctx, rec.ID, "someone-else", types.TransactionUpdate{Status: types.StatusCompleted})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := s.UpdateTransaction(ctx, rec.ID, wallet, types.TransactionUpdate{Status: types.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, updated.Status)
	assert.Equal(t, "sig-1", updated.TxHash)
	assert.NotNil(t, updated.UpdatedAt)

	list, err := s.ListByWallet(ctx, wallet, 50)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	_, err = s.GetTransaction(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsersAndSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	u, err := s.CreateUser(ctx, email, "hash", "")
	require.NoError(t, err)
	assert.Equal(t, "", u.WalletAddress)

	_, err = s.CreateUser(ctx, email, "hash", "")
	assert.ErrorIs(t, err, ErrDuplicate)

	got, hash, err := s.UserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", hash)

	sess, err := s.CreateSession(ctx, u.ID, time.Hour)
	require.NoError(t, err)
	byToken, err := s.UserBySession(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, email, byToken.Email)

	require.NoError(t, s.DeleteSession(ctx, sess.AccessToken))
	_, err = s.UserBySession(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, ErrNotFound)
}
