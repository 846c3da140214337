package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/spendlens/internal/model"
)

// writeFile creates a temp transaction file and returns a DiscoveredFile for it.
func writeFile(t *testing.T, name string, lines ...string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	df, ok := Classify(path)
	if !ok {
		t.Fatalf("Classify(%s) not recognized", name)
	}
	return df
}

func TestParseFile_CSV(t *testing.T) {
	df := writeFile(t, "bank.csv",
		"date,amount,category,description,type",
		"2025-06-01,12.50,food,lunch,expense",
		"2025-06-02,-40,Transport,fuel,",
		"2025-06-03,2000,Other,salary,income",
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", result.ParseErrors)
	}
	if len(result.Transactions) != 3 {
		t.Fatalf("len(Transactions) = %d, want 3", len(result.Transactions))
	}

	first := result.Transactions[0]
	if first.Category != model.Food {
		t.Errorf("Category = %q, want Food", first.Category)
	}
	if !first.Date.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", first.Date)
	}
	if first.ID == "" {
		t.Error("expected derived ID")
	}
	if got := result.Transactions[1].Amount.String(); got != "40" {
		t.Errorf("Amount = %s, want 40 (absolute)", got)
	}
	if result.Transactions[1].Type != model.Expense {
		t.Errorf("empty type should default to expense")
	}
	if result.Transactions[2].Type != model.Income {
		t.Errorf("Type = %q, want income", result.Transactions[2].Type)
	}
}

func TestParseFile_CSVMissingColumn(t *testing.T) {
	df := writeFile(t, "bad.csv", "when,amount", "2025-06-01,1")
	if result := ParseFile(df); result.Err == nil {
		t.Fatal("expected error for missing date column")
	}
}

func TestParseFile_JSONLDedupAndErrors(t *testing.T) {
	df := writeFile(t, "tx.jsonl",
		`{"id":"a","date":"2025-06-01","amount":10,"category":"Groceries"}`,
		`not json`,
		`{"id":"a","date":"2025-06-01","amount":"15.25","category":"Groceries"}`,
		`{"id":"b","date":"2025-06-02T09:30:00Z","amount":7,"category":"mystery","transaction_type":"expense"}`,
		`{"id":"c","date":"yesterday","amount":7}`,
	)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", result.ParseErrors)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("len(Transactions) = %d, want 2 (dedup by id)", len(result.Transactions))
	}
	if got := result.Transactions[0].Amount.String(); got != "15.25" {
		t.Errorf("Amount = %s, want last occurrence 15.25", got)
	}
	if result.Transactions[1].Category != model.Other {
		t.Errorf("Category = %q, want Other", result.Transactions[1].Category)
	}
}

func TestDerivedIDStable(t *testing.T) {
	df := writeFile(t, "a.csv", "date,amount", "2025-06-01,5")
	r1 := ParseFile(df)
	r2 := ParseFile(df)
	if r1.Transactions[0].ID != r2.Transactions[0].ID {
		t.Error("derived IDs differ between parses")
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("date,amount\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("checking/jan.csv")
	mustWrite("card.jsonl")
	mustWrite("notes.txt")
	mustWrite(".hidden/x.csv")

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if CountAccounts(files) != 2 {
		t.Errorf("CountAccounts = %d, want 2", CountAccounts(files))
	}

	missing, err := ScanDir(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Errorf("missing dir: files=%v err=%v", missing, err)
	}
}
