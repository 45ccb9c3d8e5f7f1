package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-swap/pkg/apperror"
	"sol-swap/pkg/types"
)

func record(hash string) types.TransactionRecord {
	return types.TransactionRecord{
		WalletAddress: "Wallet1",
		FromToken:     "SOL",
		ToToken:       "USDC",
		FromAmount:    "1",
		ToAmount:      "150",
		TxHash:        hash,
		Status:        types.StatusPending,
	}
}

func TestAppendPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	j, err := Open(path)
	require.NoError(t, err)

	e, err := j.Append("abc123", record("abc123"))
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, types.StatusPending, e.Status)
	assert.False(t, e.Persisted)

	again, err := j.Append("abc123", record("abc123"))
	require.NoError(t, err)
	assert.Equal(t, e.ID, again.ID)

	require.NoError(t, j.MarkPersisted("abc123", "rec-1"))
	require.NoError(t, j.SetStatus("abc123", types.StatusCompleted))

	reopened, err := Open(path)
	require.NoError(t, err)
	got, err := reopened.Get("abc123")
	require.NoError(t, err)
	assert.True(t, got.Persisted)
	assert.Equal(t, "rec-1", got.RecordID)
	assert.Equal(t, "rec-1", got.Record.ID)
	assert.Equal(t, types.StatusCompleted, got.Record.Status)
}

func TestUnsettledAndOrdering(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "j.json"))
	require.NoError(t, err)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	_, err = j.Append("a", record("a"))
	require.NoError(t, err)
	_, err = j.Append("b", record("b"))
	require.NoError(t, err)
	require.NoError(t, j.MarkPersisted("a", "1"))
	require.NoError(t, j.SetStatus("a", types.StatusCompleted))

	list := j.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Signature)

	unsettled := j.Unsettled()
	require.Len(t, unsettled, 1)
	assert.Equal(t, "b", unsettled[0].Signature)
}

func TestErrors(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "j.json"))
	require.NoError(t, err)

	_, err = j.Append("", record(""))
	assert.Equal(t, apperror.CodeValidationError, apperror.GetCode(err))

	_, err = j.Get("missing")
	assert.Equal(t, apperror.CodeNotFound, apperror.GetCode(err))
	assert.Equal(t, apperror.CodeNotFound, apperror.GetCode(j.SetStatus("missing", types.StatusFailed)))
}
