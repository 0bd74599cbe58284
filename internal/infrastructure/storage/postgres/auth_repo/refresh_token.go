package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasworld/internal/core/id"
	"gasworld/internal/domain/auth"
	"gasworld/internal/infrastructure/storage/postgres"
)

const refreshTokenTable = "refresh_tokens"

var refreshTokenCols = []string{
	"id", "user_id", "token_hash", "expires_at", "revoked_at", "created_at",
}

// Compile-time check that RefreshTokenRepo implements auth.RefreshTokenRepository.
var _ auth.RefreshTokenRepository = (*RefreshTokenRepo)(nil)

// RefreshTokenRepo implements auth.RefreshTokenRepository.
type RefreshTokenRepo struct {
	txManager *postgres.TxManager
}

// NewRefreshTokenRepo creates a refresh token repository.
func NewRefreshTokenRepo(txManager *postgres.TxManager) *RefreshTokenRepo {
	return &RefreshTokenRepo{txManager: txManager}
}

func (r *RefreshTokenRepo) Store(ctx context.Context, t *auth.RefreshToken) error {
	sql, args, err := builder().
		Insert(refreshTokenTable).
		Columns(refreshTokenCols...).
		Values(t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.RevokedAt, t.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "refresh token", t.ID)
}

func (r *RefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	sql, args, err := builder().
		Select(refreshTokenCols...).
		From(refreshTokenTable).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var t auth.RefreshToken
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		return nil, postgres.MapError(err, "refresh token", "hash")
	}
	return &t, nil
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	sql, args, err := builder().
		Update(refreshTokenTable).
		Set("revoked_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "refresh token", "hash")
}

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID id.ID) error {
	sql, args, err := builder().
		Update(refreshTokenTable).
		Set("revoked_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"user_id": userID}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "refresh token", userID)
}
