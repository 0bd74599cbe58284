// Package auth_repo provides PostgreSQL implementations for user and
// session repositories.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gasworld/internal/core/apperror"
	"gasworld/internal/core/id"
	"gasworld/internal/domain/auth"
	"gasworld/internal/infrastructure/storage/postgres"
)

const userTable = "users"

var userCols = []string{
	"id", "name", "email", "password_hash", "role",
	"station_id", "is_active", "created_at", "updated_at",
}

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Compile-time check that UserRepo implements auth.UserRepository.
var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	sql, args, err := builder().
		Insert(userTable).
		Columns(userCols...).
		Values(u.ID, u.Name, u.Email, u.PasswordHash, u.Role,
			u.StationID, u.IsActive, u.CreatedAt, u.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return postgres.MapError(err, "user", u.Email)
}

func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	sql, args, err := builder().
		Update(userTable).
		SetMap(map[string]any{
			"name":          u.Name,
			"email":         u.Email,
			"password_hash": u.PasswordHash,
			"role":          u.Role,
			"station_id":    u.StationID,
			"is_active":     u.IsActive,
			"updated_at":    u.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "user", u.ID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", u.ID)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.get(ctx, squirrel.Eq{"id": userID}, userID)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.get(ctx, squirrel.Eq{"email": email}, email)
}

func (r *UserRepo) get(ctx context.Context, where squirrel.Eq, key any) (*auth.User, error) {
	sql, args, err := builder().
		Select(userCols...).
		From(userTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var u auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &u, sql, args...); err != nil {
		return nil, postgres.MapError(err, "user", key)
	}
	return &u, nil
}

func (r *UserRepo) ListByStation(ctx context.Context, stationID id.ID) ([]*auth.User, error) {
	return r.list(ctx, squirrel.Eq{"station_id": stationID})
}

func (r *UserRepo) ListByStationAndRole(ctx context.Context, stationID id.ID, role string) ([]*auth.User, error) {
	return r.list(ctx, squirrel.Eq{"station_id": stationID, "role": role})
}

func (r *UserRepo) list(ctx context.Context, where squirrel.Eq) ([]*auth.User, error) {
	sql, args, err := builder().
		Select(userCols...).
		From(userTable).
		Where(where).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []*auth.User
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	sql, args, err := builder().
		Delete(userTable).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "user", userID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID)
	}
	return nil
}
