package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

// SessionRepository stores session relay values in MySQL.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// EnsureSchema creates the session table when missing.
func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS session_values (
  session_id VARCHAR(64) NOT NULL,
  value_key VARCHAR(64) NOT NULL,
  value LONGBLOB NOT NULL,
  expires_at DATETIME(6) NULL,
  updated_at DATETIME(6) NOT NULL,
  PRIMARY KEY (session_id, value_key),
  KEY idx_session_values_expires (expires_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create session_values: %w", err)
	}
	return nil
}

// Put inserts or replaces a value
func (r *SessionRepository) Put(ctx context.Context, e domain.Entry) error {
	const q = `
INSERT INTO session_values (session_id, value_key, value, expires_at, updated_at)
VALUES (?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  value=VALUES(value), expires_at=VALUES(expires_at), updated_at=VALUES(updated_at);`
	_, err := r.db.ExecContext(ctx, q, e.SessionID, e.Key, e.Value, nullTime(e.ExpiresAt), r.now().UTC())
	return err
}

// Get returns a live value; expired rows read as absent.
func (r *SessionRepository) Get(ctx context.Context, sid, key string) (domain.Entry, error) {
	const q = `
SELECT value, expires_at
FROM session_values
WHERE session_id=? AND value_key=? AND (expires_at IS NULL OR expires_at > ?);`
	e := domain.Entry{SessionID: sid, Key: key}
	var expires sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, sid, key, r.now().UTC()).Scan(&e.Value, &expires); err != nil {
		return domain.Entry{}, notFound(err)
	}
	if expires.Valid {
		e.ExpiresAt = expires.Time
	}
	return e, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sid, key string) error {
	const q = `DELETE FROM session_values WHERE session_id=? AND value_key=?;`
	_, err := r.db.ExecContext(ctx, q, sid, key)
	return err
}

// DeleteExpired removes expired rows and returns how many went.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM session_values WHERE expires_at IS NOT NULL AND expires_at <= ?;`
	res, err := r.db.ExecContext(ctx, q, r.now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
