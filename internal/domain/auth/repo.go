package auth

import (
	"context"

	"gasworld/internal/core/id"
)

// UserRepository provides access to users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByStation(ctx context.Context, stationID id.ID) ([]*User, error)
	ListByStationAndRole(ctx context.Context, stationID id.ID, role string) ([]*User, error)
	Delete(ctx context.Context, userID id.ID) error
}

// RefreshTokenRepository stores hashed session tokens.
type RefreshTokenRepository interface {
	Store(ctx context.Context, t *RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID id.ID) error
}
