package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/spendlens/internal/store"
)

func writeCSV(t *testing.T, path string, rows ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	content := "date,amount,category\n"
	for _, r := range rows {
		content += r + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadParallel(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "a", "jan.csv"), "2025-01-01,10,Food", "2025-01-02,5,Food")
	writeCSV(t, filepath.Join(dir, "b", "jan.csv"), "2025-01-01,7,Bills")
	writeCSV(t, filepath.Join(dir, "c.csv"), "garbage,x,y")

	var calls atomic.Int32
	result, err := Load(dir, func(current, total int) {
		calls.Add(1)
		assert.LessOrEqual(t, current, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalFiles)
	assert.Equal(t, 3, result.ParsedFiles)
	assert.Equal(t, 1, result.ParseErrors)
	assert.Len(t, result.Transactions, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestImportIncremental(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(t.TempDir(), "db.sqlite"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	ctx := context.Background()

	jan := filepath.Join(dir, "jan.csv")
	feb := filepath.Join(dir, "feb.csv")
	writeCSV(t, jan, "2025-01-01,10,Food")
	writeCSV(t, feb, "2025-02-01,20,Food")

	first, err := ImportIncremental(ctx, dir, "u1", st, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Reparsed)
	assert.Len(t, first.Transactions, 2)

	second, err := ImportIncremental(ctx, dir, "u1", st, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Unchanged)
	assert.Equal(t, 0, second.Reparsed)
	assert.Len(t, second.Transactions, 2)

	require.NoError(t, os.Remove(feb))
	third, err := ImportIncremental(ctx, dir, "u1", st, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Removed)
	assert.Len(t, third.Transactions, 1)
}
