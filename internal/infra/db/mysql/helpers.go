package mysql

import (
	"database/sql"
	"errors"
	"time"

	"github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

// nullTime maps the zero time to NULL (no expiry).
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// notFound maps sql.ErrNoRows to session.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return session.ErrNotFound
	}
	return err
}
