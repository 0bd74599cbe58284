package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"gasworld/internal/core/apperror"
)

// PostgreSQL error codes mapped to application errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapError translates low-level database errors into application errors.
// Unique violations surface as AlreadyExists because every unique constraint
// in this schema backs an at-most-once derivation rule.
func MapError(err error, entity string, entityID any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, entityID)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewAlreadyExists(entity, entityID).WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewConflict("referenced record does not exist or is still referenced").
				WithDetail("entity", entity).
				WithCause(err)
		case pgCheckViolation:
			return apperror.NewValidation("record violates a database constraint").
				WithDetail("entity", entity).
				WithCause(err)
		}
	}
	return err
}
