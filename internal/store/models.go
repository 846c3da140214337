package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ModelRecord is a serialized forecast model.
type ModelRecord struct {
	UserID      string
	Fingerprint string
	Payload     []byte
	CVMAE       float64
	TrainRows   int
	TrainedAt   time.Time
}

// SaveModel stores (or replaces) the model for a user.
func (s *Store) SaveModel(ctx context.Context, rec ModelRecord) error {
	if rec.TrainedAt.IsZero() {
		rec.TrainedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO models
		(user_id, fingerprint, payload, cv_mae, train_rows, trained_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Fingerprint, rec.Payload, rec.CVMAE, rec.TrainRows,
		rec.TrainedAt.UTC().Format(time.RFC3339))
	return err
}

// LoadModel returns the stored model for a user, or ErrNotFound.
func (s *Store) LoadModel(ctx context.Context, userID string) (*ModelRecord, error) {
	var rec ModelRecord
	var trained string
	err := s.db.QueryRowContext(ctx, `SELECT user_id, fingerprint, payload, cv_mae, train_rows, trained_at
		FROM models WHERE user_id = ?`, userID).
		Scan(&rec.UserID, &rec.Fingerprint, &rec.Payload, &rec.CVMAE, &rec.TrainRows, &trained)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.TrainedAt, _ = time.Parse(time.RFC3339, trained)
	return &rec, nil
}

// DeleteModel drops a user's stored model.
func (s *Store) DeleteModel(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM models WHERE user_id = ?", userID)
	return err
}
