package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/spendlens/internal/source"
	"github.com/theirongolddev/spendlens/internal/store"
)

// ImportResult extends LoadResult with incremental import metadata.
type ImportResult struct {
	LoadResult
	Unchanged int
	Reparsed  int
	Removed   int
}

// ImportIncremental discovers transaction files under dir, diffs them against
// the store's file tracker, parses only new or changed files and saves their
// transactions for userID. Files that disappeared from dir are dropped along
// with their transactions. The returned Transactions hold the user's full set.
func ImportIncremental(ctx context.Context, dir, userID string, st *store.Store, progressFn ProgressFunc) (*ImportResult, error) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &ImportResult{
		LoadResult: LoadResult{
			TotalFiles:   len(files),
			AccountCount: source.CountAccounts(files),
		},
	}

	tracked, err := st.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading file tracker: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredFile
	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		cached, ok := tracked[f.Path]
		if ok && cached.UserID == userID && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			result.Unchanged++
			result.ParsedFiles++
		} else {
			toReparse = append(toReparse, f)
		}
	}
	result.Reparsed = len(toReparse)

	// Only files under dir are candidates for removal
	prefix := dir + string(filepath.Separator)
	for path, fi := range tracked {
		if fi.UserID != userID || !strings.HasPrefix(path, prefix) {
			continue
		}
		if _, ok := present[path]; ok {
			continue
		}
		if err := st.DeleteFileTracker(path); err != nil {
			return nil, fmt.Errorf("dropping %s: %w", path, err)
		}
		result.Removed++
	}

	if len(toReparse) > 0 {
		results := parseAll(toReparse, result.Unchanged, progressFn)
		for i, pr := range results {
			if pr.Err != nil {
				result.FileErrors++
				continue
			}
			result.ParsedFiles++
			result.ParseErrors += pr.ParseErrors

			info, err := os.Stat(toReparse[i].Path)
			if err != nil {
				result.FileErrors++
				continue
			}
			if err := st.SaveFileTransactions(userID, toReparse[i].Path, pr.Transactions, info.ModTime().UnixNano(), info.Size()); err != nil {
				return nil, fmt.Errorf("saving %s: %w", toReparse[i].Path, err)
			}
		}
	}

	txs, err := st.LoadTransactions(ctx, userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	result.Transactions = txs
	return result, nil
}

// DataDir returns the platform-appropriate data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "spendlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "spendlens")
}

// DBPath returns the default path of the SQLite database.
func DBPath() string {
	return filepath.Join(DataDir(), "spendlens.db")
}
