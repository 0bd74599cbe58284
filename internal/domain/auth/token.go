package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gasworld/internal/core/apperror"
	appctx "gasworld/internal/core/context"
	"gasworld/internal/core/id"
)

const (
	// DefaultAccessTTL bounds access token lifetime.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL bounds refresh token lifetime.
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Claims carried by access tokens.
type Claims struct {
	UserID    string  `json:"uid"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	StationID *string `json:"station_id,omitempty"`
	SessionID string  `json:"sid"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies JWT access tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager creates a token manager with the given signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
	}
}

// TokenPair is the credential set returned at login and refresh.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IssueAccess signs an access token for the user under the given session.
func (m *TokenManager) IssueAccess(u *User, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.accessTTL)

	var stationID *string
	if u.StationID != nil {
		s := u.StationID.String()
		stationID = &s
	}
	claims := Claims{
		UserID:    u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		StationID: stationID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, apperror.NewInternal(err)
	}
	return signed, expiresAt, nil
}

// VerifyAccess parses an access token into a user context.
func (m *TokenManager) VerifyAccess(tokenString string) (*appctx.UserContext, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.NewUnauthorized("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.NewUnauthorized("invalid or expired token")
	}

	if _, err := id.Parse(claims.UserID); err != nil {
		return nil, apperror.NewUnauthorized("malformed token subject")
	}
	uc := &appctx.UserContext{
		UserID:    claims.UserID,
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}
	if claims.StationID != nil {
		if _, err := id.Parse(*claims.StationID); err != nil {
			return nil, apperror.NewUnauthorized("malformed station claim")
		}
		uc.StationID = *claims.StationID
	}
	return uc, nil
}

// NewRefreshToken generates an opaque refresh token and its storage hash.
func (m *TokenManager) NewRefreshToken() (token, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, apperror.NewInternal(err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), time.Now().Add(m.refreshTTL), nil
}

// HashToken derives the storage hash of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
