package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "spendlens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tx(id, date, amount, category string) model.Transaction {
	d, _ := time.Parse("2006-01-02", date)
	return model.Transaction{
		ID:       id,
		Date:     d,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Type:     model.Expense,
	}
}

func TestFileTransactionsReplaceOnReimport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveFileTransactions("alice", "/data/a.csv", []model.Transaction{
		tx("1", "2025-01-02", "10.50", model.Food),
		tx("2", "2025-01-01", "3", model.Transport),
	}, 100, 42))

	got, err := s.LoadTransactions(ctx, "alice", time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID, "ordered by date")
	assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("10.5")))

	tracked, err := s.GetTrackedFiles()
	require.NoError(t, err)
	assert.Equal(t, FileInfo{UserID: "alice", MtimeNs: 100, SizeBytes: 42}, tracked["/data/a.csv"])

	require.NoError(t, s.SaveFileTransactions("alice", "/data/a.csv", []model.Transaction{
		tx("3", "2025-01-05", "7", model.Bills),
	}, 200, 50))
	got, err = s.LoadTransactions(ctx, "alice", time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	require.NoError(t, s.DeleteFileTracker("/data/a.csv"))
	count, err := s.TransactionCount(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoadTransactionsSince(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTransactions(ctx, "bob", []model.Transaction{
		tx("a", "2025-03-01", "1", model.Food),
		tx("b", "2025-03-10", "2", model.Food),
	}))

	since, _ := time.Parse("2006-01-02", "2025-03-05")
	got, err := s.LoadTransactions(ctx, "bob", since)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, users)
}

func TestSaveTransactionsRequiresID(t *testing.T) {
	s := openTestStore(t)
	err := s.SaveTransactions(context.Background(), "bob", []model.Transaction{tx("", "2025-03-01", "1", model.Food)})
	assert.Error(t, err)
}

func TestFingerprintChanges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.Fingerprint(ctx, "carol")
	require.NoError(t, err)

	require.NoError(t, s.SaveTransactions(ctx, "carol", []model.Transaction{tx("a", "2025-03-01", "1", model.Food)}))
	first, err := s.Fingerprint(ctx, "carol")
	require.NoError(t, err)
	assert.NotEqual(t, empty, first)

	again, err := s.Fingerprint(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, s.SaveTransactions(ctx, "carol", []model.Transaction{tx("a", "2025-03-01", "2", model.Food)}))
	edited, err := s.Fingerprint(ctx, "carol")
	require.NoError(t, err)
	assert.NotEqual(t, first, edited)
}

func TestResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LatestResult(ctx, "dave", KindBudget, "monthly")
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := s.SaveResult(ctx, "dave", KindBudget, "monthly", map[string]float64{"total": 100})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	r, err := s.LatestResult(ctx, "dave", KindBudget, "monthly")
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
	assert.JSONEq(t, `{"total":100}`, string(r.Payload))

	list, err := s.ListResults(ctx, "dave", KindBudget, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestModels(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.LoadModel(ctx, "erin")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveModel(ctx, ModelRecord{UserID: "erin", Fingerprint: "abc", Payload: []byte("{}"), CVMAE: 4.2, TrainRows: 90}))
	rec, err := s.LoadModel(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.Fingerprint)
	assert.Equal(t, []byte("{}"), rec.Payload)
	assert.Equal(t, 90, rec.TrainRows)
	assert.False(t, rec.TrainedAt.IsZero())

	require.NoError(t, s.DeleteModel(ctx, "erin"))
	_, err = s.LoadModel(ctx, "erin")
	assert.ErrorIs(t, err, ErrNotFound)
}
