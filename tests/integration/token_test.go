package integration

import (
	"context"
	"testing"
	"time"

	"github.com/devex-hq/devex-api/internal/services"
	"github.com/devex-hq/devex-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_Integration_StoreAndValidate(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	tokenHash := services.HashToken("my-refresh-token")

	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, tokenHash, time.Now().Add(24*time.Hour)))

	userID, err := svc.ValidateRefreshToken(ctx, tokenHash)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestTokenService_Integration_ValidateExpired(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	tokenHash := services.HashToken("expired-token")

	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, tokenHash, time.Now().Add(-time.Hour)))

	_, err := svc.ValidateRefreshToken(ctx, tokenHash)
	assert.ErrorIs(t, err, services.ErrRefreshTokenNotFound)
}

func TestTokenService_Integration_RotateIsSingleUse(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	oldHash, newHash := services.HashToken("old"), services.HashToken("new")
	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, oldHash, expiresAt))

	require.NoError(t, svc.RotateRefreshToken(ctx, user.ID, oldHash, newHash, expiresAt))

	_, err := svc.ValidateRefreshToken(ctx, oldHash)
	assert.ErrorIs(t, err, services.ErrRefreshTokenNotFound)
	_, err = svc.ValidateRefreshToken(ctx, newHash)
	assert.NoError(t, err)

	err = svc.RotateRefreshToken(ctx, user.ID, oldHash, services.HashToken("replay"), expiresAt)
	assert.ErrorIs(t, err, services.ErrRefreshTokenNotFound)
	_, err = svc.ValidateRefreshToken(ctx, services.HashToken("replay"))
	assert.Error(t, err, "a failed rotation stores nothing")
}

func TestTokenService_Integration_RevokeAll(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	expiresAt := time.Now().Add(24 * time.Hour)
	for _, tok := range []string{"token-1", "token-2", "token-3"} {
		require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, services.HashToken(tok), expiresAt))
	}

	require.NoError(t, svc.RevokeAllUserTokens(ctx, user.ID))

	for _, tok := range []string{"token-1", "token-2", "token-3"} {
		_, err := svc.ValidateRefreshToken(ctx, services.HashToken(tok))
		assert.Error(t, err)
	}
}

func TestTokenService_Integration_CleanupExpired(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewTokenService(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)
	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, services.HashToken("expired"), time.Now().Add(-time.Hour)))
	require.NoError(t, svc.StoreRefreshToken(ctx, user.ID, services.HashToken("valid"), time.Now().Add(time.Hour)))

	removed, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = svc.ValidateRefreshToken(ctx, services.HashToken("valid"))
	assert.NoError(t, err)
}
