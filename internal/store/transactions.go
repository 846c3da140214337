package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendlens/internal/model"
)

const dateLayout = "2006-01-02"

// SaveFileTransactions replaces the transactions previously imported from
// filePath with txs and records the file's mtime and size.
func (s *Store) SaveFileTransactions(userID, filePath string, txs []model.Transaction, mtimeNs, sizeBytes int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM transactions WHERE user_id = ? AND source_file = ?", userID, filePath); err != nil {
		return err
	}
	if err := insertTransactions(tx, userID, filePath, txs); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, user_id, mtime_ns, size_bytes)
		VALUES (?, ?, ?, ?)`, filePath, userID, mtimeNs, sizeBytes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SaveTransactions upserts transactions that did not come from a file.
func (s *Store) SaveTransactions(ctx context.Context, userID string, txs []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertTransactions(tx, userID, "", txs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTransactions(tx *sql.Tx, userID, sourceFile string, txs []model.Transaction) error {
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO transactions
		(user_id, id, date, amount, category, description, tx_type, source_file, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, t := range txs {
		if t.ID == "" {
			return fmt.Errorf("transaction on %s has no id", model.DayKey(t.Date))
		}
		_, err := stmt.Exec(userID, t.ID, t.Date.UTC().Format(dateLayout), t.Amount.String(),
			model.NormalizeCategory(t.Category), t.Description, string(t.Type), sourceFile, now)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", t.ID, err)
		}
	}
	return nil
}

// LoadTransactions returns a user's transactions dated on or after since
// (zero means all), oldest first.
func (s *Store) LoadTransactions(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	from := ""
	if !since.IsZero() {
		from = since.UTC().Format(dateLayout)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, date, amount, category, description, tx_type
		FROM transactions WHERE user_id = ? AND date >= ? ORDER BY date, id`, userID, from)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var date, amount, typ string
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &date, &amount, &t.Category, &desc, &typ); err != nil {
			return nil, err
		}
		if t.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.Description = desc.String
		t.Type = model.TxType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Users lists every user with at least one transaction.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT user_id FROM transactions ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TransactionCount returns the number of stored transactions for a user.
func (s *Store) TransactionCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// Fingerprint summarizes a user's transaction set. It changes whenever a
// transaction is added, removed or edited.
func (s *Store) Fingerprint(ctx context.Context, userID string) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, date, amount, category, tx_type
		FROM transactions WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	h := sha256.New()
	for rows.Next() {
		var id, date, amount, category, typ string
		if err := rows.Scan(&id, &date, &amount, &category, &typ); err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s|%s|%s|%s|%s\n", id, date, amount, category, typ)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}
