// Package auth owns users, credentials, and token-based sessions.
package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gasworld/internal/core/apperror"
	appctx "gasworld/internal/core/context"
	"gasworld/internal/core/id"
)

// User is an authenticated identity: a station owner, manager, or attendant.
type User struct {
	ID           id.ID  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
	// StationID binds managers and attendants to their station. Nil for
	// owners, who own stations instead.
	StationID *id.ID    `db:"station_id" json:"stationId,omitempty"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return apperror.NewValidation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies the password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Validate checks user fields.
func (u *User) Validate(_ context.Context) error {
	if u.Name == "" {
		return apperror.NewValidation("user name is required")
	}
	if u.Email == "" {
		return apperror.NewValidation("user email is required")
	}
	switch u.Role {
	case appctx.RoleOwner:
		if u.StationID != nil {
			return apperror.NewValidation("owners are not bound to a station")
		}
	case appctx.RoleManager, appctx.RoleAttendant:
		if u.StationID == nil || id.IsNil(*u.StationID) {
			return apperror.NewValidation("managers and attendants require a station")
		}
	default:
		return apperror.NewValidation("unknown role").WithDetail("role", u.Role)
	}
	return nil
}

// RefreshToken is a stored session token. Only the SHA-256 hash of the token
// is persisted.
type RefreshToken struct {
	ID        id.ID     `db:"id" json:"id"`
	UserID    id.ID     `db:"user_id" json:"userId"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	RevokedAt *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IsValid reports whether the token can still be redeemed.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
