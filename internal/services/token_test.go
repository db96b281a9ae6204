package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenService(t *testing.T) (*TokenService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewTokenService(db), mock
}

func TestTokenService_StoreRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	userID := uuid.New()
	expiresAt := time.Now().Add(24 * time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "abc123hash", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := svc.StoreRefreshToken(ctx, userID, "abc123hash", expiresAt)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_StoreRefreshToken_Error(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "h", expiresAt).
		WillReturnError(errors.New("disk full"))

	err := svc.StoreRefreshToken(context.Background(), userID, "h", expiresAt)

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_ValidateRefreshToken_Valid(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs("valid-hash").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))

	result, err := svc.ValidateRefreshToken(ctx, "valid-hash")

	assert.NoError(t, err)
	assert.Equal(t, userID, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_ValidateRefreshToken_NotFound(t *testing.T) {
	svc, mock := setupTokenService(t)

	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs("expired-hash").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.ValidateRefreshToken(context.Background(), "expired-hash")

	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RotateRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens`).
		WithArgs("old", userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "new", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := svc.RotateRefreshToken(context.Background(), userID, "old", "new", expiresAt)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RotateRefreshToken_AlreadyUsed(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens`).
		WithArgs("old", userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := svc.RotateRefreshToken(context.Background(), userID, "old", "new", time.Now())

	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RevokeRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs("to-be-revoked").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.RevokeRefreshToken(context.Background(), "to-be-revoked")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RevokeAllUserTokens(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id`).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err := svc.RevokeAllUserTokens(context.Background(), userID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_CleanupExpired(t *testing.T) {
	svc, mock := setupTokenService(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < NOW`).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	n, err := svc.CleanupExpired(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
