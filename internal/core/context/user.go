// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Role names carried in JWT claims and checked by the authorization guard.
const (
	RoleOwner     = "owner"
	RoleManager   = "manager"
	RoleAttendant = "attendant"
)

// UserContext contains authenticated user information.
type UserContext struct {
	UserID    string
	Name      string
	Email     string
	Role      string
	StationID string // station binding for managers and attendants, empty for owners
	SessionID string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetStationID returns the acting user's station binding or empty string.
func GetStationID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.StationID
	}
	return ""
}

// HasRole checks if the acting user carries the given role claim.
// The claim is a hint only; writes are re-checked through the guard.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	return u.Role == role
}
