package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devex-hq/devex-api/internal/apperr"
	"github.com/devex-hq/devex-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrRefreshTokenNotFound = fmt.Errorf("%w: refresh token revoked or expired", apperr.ErrForbidden)

// TokenService stores refresh tokens by hash so a leaked table cannot be
// replayed.
type TokenService struct {
	db *database.DB
}

func NewTokenService(db *database.DB) *TokenService {
	return &TokenService{db: db}
}

func (s *TokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		return apperr.Persistence("store refresh token", err)
	}
	return nil
}

func (s *TokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		SELECT user_id FROM refresh_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrRefreshTokenNotFound
		}
		return uuid.Nil, apperr.Persistence("validate refresh token", err)
	}
	return userID, nil
}

// RotateRefreshToken swaps oldHash for newHash in one transaction. A token
// that was already rotated or revoked fails with ErrRefreshTokenNotFound.
func (s *TokenService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return apperr.Persistence("begin token rotation", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1 AND user_id = $2 AND expires_at > NOW()
	`, oldHash, userID)
	if err != nil {
		return apperr.Persistence("revoke refresh token", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRefreshTokenNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, newHash, expiresAt); err != nil {
		return apperr.Persistence("store refresh token", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Persistence("commit token rotation", err)
	}
	return nil
}

func (s *TokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash); err != nil {
		return apperr.Persistence("revoke refresh token", err)
	}
	return nil
}

func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return apperr.Persistence("revoke user tokens", err)
	}
	return nil
}

// CleanupExpired deletes expired tokens and reports how many were removed.
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, apperr.Persistence("clean up refresh tokens", err)
	}
	return tag.RowsAffected(), nil
}
