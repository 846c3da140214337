package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Result kinds.
const (
	KindForecast = "forecast"
	KindBudget   = "budget"
	KindPatterns = "patterns"
)

// Result is a persisted computation output.
type Result struct {
	ID        string
	UserID    string
	Kind      string
	Params    string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// SaveResult marshals payload and stores it under a new ID.
func (s *Store) SaveResult(ctx context.Context, userID, kind, params string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding %s result: %w", kind, err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `INSERT INTO results (id, user_id, kind, params, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, kind, params, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", err
	}
	return id, nil
}

// LatestResult returns the most recent result for (user, kind, params).
func (s *Store) LatestResult(ctx context.Context, userID, kind, params string) (*Result, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, kind, params, payload, created_at
		FROM results WHERE user_id = ? AND kind = ? AND params = ?
		ORDER BY created_at DESC LIMIT 1`, userID, kind, params)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListResults returns a user's results of one kind, newest first.
func (s *Store) ListResults(ctx context.Context, userID, kind string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, kind, params, payload, created_at
		FROM results WHERE user_id = ? AND kind = ?
		ORDER BY created_at DESC LIMIT ?`, userID, kind, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*Result, error) {
	var r Result
	var payload, created string
	if err := row.Scan(&r.ID, &r.UserID, &r.Kind, &r.Params, &payload, &created); err != nil {
		return nil, err
	}
	r.Payload = json.RawMessage(payload)
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &r, nil
}
