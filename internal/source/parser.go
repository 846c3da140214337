// Package source discovers and parses transaction export files.
package source

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendlens/internal/model"
)

// idNamespace derives stable IDs for records that carry none, so re-importing
// the same file replaces rows instead of duplicating them.
var idNamespace = uuid.MustParse("6f1c7c9e-7f4a-4d38-9d0e-3b8f1f3f5a21")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
	"02.01.2006",
}

// ParseResult holds the output of parsing a single transaction file.
type ParseResult struct {
	Transactions []model.Transaction
	ParseErrors  int
	Err          error
}

// ParseFile reads a transaction file. Records are deduplicated by ID,
// keeping the last occurrence. Malformed rows are counted, not fatal.
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	switch df.Format {
	case FormatCSV:
		return parseCSV(f, df.Path)
	case FormatJSONL:
		return parseJSONL(f, df.Path)
	}
	return ParseResult{Err: fmt.Errorf("unsupported format %q", df.Format)}
}

type collector struct {
	byID   map[string]int
	out    []model.Transaction
	errors int
}

func newCollector() *collector {
	return &collector{byID: make(map[string]int)}
}

func (c *collector) add(tx model.Transaction) {
	if i, ok := c.byID[tx.ID]; ok {
		c.out[i] = tx
		return
	}
	c.byID[tx.ID] = len(c.out)
	c.out = append(c.out, tx)
}

func (c *collector) result() ParseResult {
	return ParseResult{Transactions: c.out, ParseErrors: c.errors}
}

func parseCSV(r io.Reader, path string) ParseResult {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ParseResult{}
		}
		return ParseResult{Err: fmt.Errorf("reading header: %w", err)}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["date"]; !ok {
		return ParseResult{Err: fmt.Errorf("%s: missing date column", path)}
	}
	if _, ok := cols["amount"]; !ok {
		return ParseResult{Err: fmt.Errorf("%s: missing amount column", path)}
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	c := newCollector()
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			c.errors++
			continue
		}
		typ := field(row, "transaction_type")
		if typ == "" {
			typ = field(row, "type")
		}
		tx, err := buildTransaction(field(row, "id"), field(row, "date"), field(row, "amount"),
			field(row, "category"), field(row, "description"), typ)
		if err != nil {
			c.errors++
			continue
		}
		if tx.ID == "" {
			tx.ID = derivedID(path, line, strings.Join(row, ","))
		}
		c.add(tx)
	}
	return c.result()
}

func parseJSONL(r io.Reader, path string) ParseResult {
	c := newCollector()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var rec RawRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			c.errors++
			continue
		}
		typ := rec.Type
		if typ == "" {
			typ = rec.TypeShort
		}
		tx, err := buildTransaction(rec.ID, rec.Date, rec.Amount.String(), rec.Category, rec.Description, typ)
		if err != nil {
			c.errors++
			continue
		}
		if tx.ID == "" {
			tx.ID = derivedID(path, line, raw)
		}
		c.add(tx)
	}
	if err := scanner.Err(); err != nil {
		return ParseResult{Transactions: c.out, ParseErrors: c.errors, Err: err}
	}
	return c.result()
}

func buildTransaction(id, date, amount, category, description, typ string) (model.Transaction, error) {
	d, err := ParseDate(date)
	if err != nil {
		return model.Transaction{}, err
	}
	amt, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(amount), ",", ""))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	txType, err := ParseType(typ)
	if err != nil {
		return model.Transaction{}, err
	}
	return model.Transaction{
		ID:          id,
		Date:        d,
		Amount:      amt.Abs(),
		Category:    model.NormalizeCategory(category),
		Description: description,
		Type:        txType,
	}, nil
}

// ParseDate accepts ISO dates, RFC 3339 timestamps and a few export layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseType maps a type column onto expense or income; empty means expense.
func ParseType(s string) (model.TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "expense", "debit":
		return model.Expense, nil
	case "income", "credit":
		return model.Income, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

func derivedID(path string, line int, content string) string {
	return uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s:%d:%s", path, line, content))).String()
}
