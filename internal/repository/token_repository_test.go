package repository

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenRepo(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTokenRepo(db), mock
}

func TestStoreRefreshNormalizesExpiryToUTC(t *testing.T) {
	repo, mock := newTokenRepo(t)
	hash := strings.Repeat("ab", 32)
	loc := time.FixedZone("UTC+3", 3*60*60)
	exp := time.Date(2026, 4, 1, 12, 0, 0, 0, loc)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`)).
		WithArgs(uint64(3), hash, exp.UTC()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.StoreRefresh(context.Background(), 3, hash, exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefresh(t *testing.T) {
	hash := strings.Repeat("cd", 32)
	cols := []string{"user_id", "expires_at", "revoked_at"}
	q := regexp.QuoteMeta(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`)

	t.Run("active token resolves to its user", func(t *testing.T) {
		repo, mock := newTokenRepo(t)
		mock.ExpectQuery(q).WithArgs(hash).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().UTC().Add(time.Hour), nil))

		uid, err := repo.ValidateRefresh(context.Background(), hash)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), uid)
	})

	t.Run("revoked token answers no rows", func(t *testing.T) {
		repo, mock := newTokenRepo(t)
		mock.ExpectQuery(q).WithArgs(hash).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(3, time.Now().UTC().Add(time.Hour), time.Now().UTC().Add(-time.Minute)))

		_, err := repo.ValidateRefresh(context.Background(), hash)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("expired token answers no rows", func(t *testing.T) {
		repo, mock := newTokenRepo(t)
		mock.ExpectQuery(q).WithArgs(hash).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().UTC().Add(-time.Minute), nil))

		_, err := repo.ValidateRefresh(context.Background(), hash)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("unknown token", func(t *testing.T) {
		repo, mock := newTokenRepo(t)
		mock.ExpectQuery(q).WithArgs(hash).WillReturnError(sql.ErrNoRows)

		_, err := repo.ValidateRefresh(context.Background(), hash)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestRevokeLeavesRevokedRowsUntouched(t *testing.T) {
	repo, mock := newTokenRepo(t)
	hash := strings.Repeat("ef", 32)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ? AND revoked_at IS NULL`)).
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RevokeByHash(context.Background(), hash))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL`)).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeAllForUser(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
