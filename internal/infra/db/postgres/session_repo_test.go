package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/compliance-dashboard/internal/domain/session"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo *SessionRepository
	now  = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
)

func setUp() {
	db, mock, _ = sqlmock.New()
	repo = NewSessionRepository(db)
	repo.now = func() time.Time { return now }
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestPutWithoutExpiryStoresNull(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO session_values .* ON CONFLICT \\(session_id, value_key\\) DO UPDATE").
			WithArgs("sid", domain.ReviewKey, []byte(`{}`), nil, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Put(context.Background(), domain.Entry{SessionID: "sid", Key: domain.ReviewKey, Value: []byte(`{}`)}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetReturnsValue(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT value, expires_at FROM session_values WHERE session_id=\\$1").
			WithArgs("sid", domain.ResultKey, now).
			WillReturnRows(sqlmock.NewRows([]string{"value", "expires_at"}).AddRow([]byte("payload"), nil))

		e, err := repo.Get(context.Background(), "sid", domain.ResultKey)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(e.Value))
		assert.True(t, e.ExpiresAt.IsZero())
	})
}

func TestGetNoRowsAndErrors(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT value, expires_at FROM session_values").
			WillReturnRows(sqlmock.NewRows([]string{"value", "expires_at"}))
		mock.ExpectQuery("SELECT value, expires_at FROM session_values").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Get(context.Background(), "sid", "k")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.Get(context.Background(), "sid", "k")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDeleteExpiredAndDelete(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM session_values WHERE expires_at IS NOT NULL").
			WithArgs(now).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM session_values WHERE session_id=\\$1").
			WithArgs("sid", "k").
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := repo.DeleteExpired(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
		require.NoError(t, repo.Delete(context.Background(), "sid", "k"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
