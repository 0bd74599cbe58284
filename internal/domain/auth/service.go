package auth

import (
	"context"
	"fmt"
	"time"

	"gasworld/internal/core/apperror"
	appctx "gasworld/internal/core/context"
	"gasworld/internal/core/id"
	"gasworld/internal/core/tx"
	"gasworld/internal/domain/authz"
	"gasworld/pkg/logger"
)

// Service provides registration and session management.
type Service struct {
	users     UserRepository
	tokens    RefreshTokenRepository
	tm        *TokenManager
	guard     *authz.Guard
	txManager tx.Manager
}

// NewService creates an auth service.
func NewService(users UserRepository, tokens RefreshTokenRepository, tm *TokenManager, guard *authz.Guard, txManager tx.Manager) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		tm:        tm,
		guard:     guard,
		txManager: txManager,
	}
}

// RegisterParams describes a new user.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Role     string
	// StationID is required for managers and attendants.
	StationID *id.ID
}

// Register creates a user account.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	now := time.Now()
	u := &User{
		ID:        id.New(),
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		StationID: p.StationID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}
	if err := u.SetPassword(p.Password); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Info(ctx, "user registered", "id", u.ID, "role", u.Role)
	return u, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if !u.IsActive || !u.CheckPassword(password) {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	logger.Info(ctx, "user logged in", "id", u.ID, "role", u.Role)
	return u, pair, nil
}

// Refresh redeems a refresh token for a new pair. The old token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.tokens.GetByHash(ctx, HashToken(refreshToken))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid refresh token")
		}
		return nil, err
	}
	if !stored.IsValid(time.Now()) {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	u, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperror.NewUnauthorized("account disabled")
	}

	var pair *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.Revoke(ctx, stored.TokenHash); err != nil {
			return err
		}
		var txErr error
		pair, txErr = s.issuePair(ctx, u)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the user's refresh tokens and clears every authorization
// cache key derived from the identity.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	if err := s.guard.InvalidateSession(ctx, userID, authz.Binding{Role: u.Role, StationID: u.StationID}); err != nil {
		return err
	}
	logger.Info(ctx, "user logged out", "id", userID)
	return nil
}

// GetByID retrieves a user.
func (s *Service) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListByStation lists a station's staff.
func (s *Service) ListByStation(ctx context.Context, stationID id.ID) ([]*User, error) {
	return s.users.ListByStation(ctx, stationID)
}

// Reassign changes the user's role or station binding. Cached capabilities
// derived from the old binding are invalidated immediately rather than left
// to expire; the new binding is invalidated too, clearing negatively cached
// denials that predate it.
func (s *Service) Reassign(ctx context.Context, userID id.ID, role string, stationID *id.ID) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prior := authz.Binding{Role: u.Role, StationID: u.StationID}
	u.Role = role
	u.StationID = stationID
	u.UpdatedAt = time.Now()
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	next := authz.Binding{Role: u.Role, StationID: u.StationID}
	if err := s.guard.InvalidateSession(ctx, userID, prior, next); err != nil {
		return nil, err
	}
	logger.Info(ctx, "user reassigned", "id", u.ID, "role", u.Role)
	return u, nil
}

// Deactivate disables the account and revokes its sessions.
func (s *Service) Deactivate(ctx context.Context, userID id.ID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	prior := authz.Binding{Role: u.Role, StationID: u.StationID}
	u.IsActive = false
	u.UpdatedAt = time.Now()
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	return s.guard.InvalidateSession(ctx, userID, prior)
}

func (s *Service) issuePair(ctx context.Context, u *User) (*TokenPair, error) {
	sessionID := id.New().String()
	access, expiresAt, err := s.tm.IssueAccess(u, sessionID)
	if err != nil {
		return nil, err
	}
	refresh, hash, refreshExp, err := s.tm.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Store(ctx, &RefreshToken{
		ID:        id.New(),
		UserID:    u.ID,
		TokenHash: hash,
		ExpiresAt: refreshExp,
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

// Bindings adapts the user and reading repositories into the authoritative
// source the guard falls back to on cache miss.
type Bindings struct {
	users    UserRepository
	readings ReadingLister
}

// ReadingLister is the slice of the reading repository the guard needs.
type ReadingLister interface {
	ListIDsByAttendant(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error)
}

// NewBindings creates the guard's binding source.
func NewBindings(users UserRepository, readings ReadingLister) *Bindings {
	return &Bindings{users: users, readings: readings}
}

func (b *Bindings) RoleOf(ctx context.Context, userID id.ID) (string, error) {
	u, err := b.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	if !u.IsActive {
		return "", nil
	}
	return u.Role, nil
}

func (b *Bindings) StationOf(ctx context.Context, userID id.ID) (*id.ID, error) {
	u, err := b.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return u.StationID, nil
}

func (b *Bindings) RecentReadingIDs(ctx context.Context, attendantID id.ID, limit int) ([]id.ID, error) {
	return b.readings.ListIDsByAttendant(ctx, attendantID, limit)
}

func (b *Bindings) AttendantIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error) {
	return b.idsByStationAndRole(ctx, stationID, appctx.RoleAttendant)
}

func (b *Bindings) ManagerIDsByStation(ctx context.Context, stationID id.ID) ([]id.ID, error) {
	return b.idsByStationAndRole(ctx, stationID, appctx.RoleManager)
}

func (b *Bindings) idsByStationAndRole(ctx context.Context, stationID id.ID, role string) ([]id.ID, error) {
	users, err := b.users.ListByStationAndRole(ctx, stationID, role)
	if err != nil {
		return nil, err
	}
	ids := make([]id.ID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
