package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS session_values (
  session_id TEXT NOT NULL,
  value_key TEXT NOT NULL,
  value BYTEA NOT NULL,
  expires_at TIMESTAMPTZ NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (session_id, value_key)
);
CREATE INDEX IF NOT EXISTS idx_session_values_expires ON session_values (expires_at);`
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create session_values: %w", err)
	}
	return nil
}

// Put insert/update a value
func (r *SessionRepository) Put(ctx context.Context, e domain.Entry) error {
	const q = `
INSERT INTO session_values (session_id, value_key, value, expires_at, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (session_id, value_key) DO UPDATE SET
 value = EXCLUDED.value,
 expires_at = EXCLUDED.expires_at,
 updated_at = EXCLUDED.updated_at;`

	var expires sql.NullTime
	if !e.ExpiresAt.IsZero() {
		expires = sql.NullTime{Time: e.ExpiresAt.UTC(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q, e.SessionID, e.Key, e.Value, expires, r.now().UTC())
	return err
}

// Get by session + key, ignoring expired rows
func (r *SessionRepository) Get(ctx context.Context, sid, key string) (domain.Entry, error) {
	const q = `
SELECT value, expires_at
FROM session_values
WHERE session_id=$1 AND value_key=$2 AND (expires_at IS NULL OR expires_at > $3);`

	e := domain.Entry{SessionID: sid, Key: key}
	var expires sql.NullTime
	err := r.db.QueryRowContext(ctx, q, sid, key, r.now().UTC()).Scan(&e.Value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Entry{}, err
	}
	if expires.Valid {
		e.ExpiresAt = expires.Time
	}
	return e, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sid, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_values WHERE session_id=$1 AND value_key=$2;`, sid, key)
	return err
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM session_values WHERE expires_at IS NOT NULL AND expires_at <= $1;`, r.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SessionRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }
