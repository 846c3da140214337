package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir walks dir and discovers transaction files (.csv, .jsonl, .ndjson).
// A missing directory yields no files and no error.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		if df, ok := Classify(dir); ok {
			return []DiscoveredFile{df}, nil
		}
		return nil, nil
	}

	var files []DiscoveredFile

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // intentionally skip unreadable entries
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		df, ok := Classify(path)
		if !ok {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		if parts := strings.Split(rel, string(filepath.Separator)); len(parts) > 1 {
			df.Account = parts[0]
		}
		files = append(files, df)
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

// Classify detects the format of a single path by extension.
func Classify(path string) (DiscoveredFile, bool) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		format = FormatCSV
	case ".jsonl", ".ndjson":
		format = FormatJSONL
	default:
		return DiscoveredFile{}, false
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return DiscoveredFile{Path: path, Format: format, Account: stem}, true
}

// CountAccounts returns the number of unique accounts in a set of discovered files.
func CountAccounts(files []DiscoveredFile) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Account] = struct{}{}
	}
	return len(seen)
}
