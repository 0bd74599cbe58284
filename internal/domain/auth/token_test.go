package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "gasworld/internal/core/context"
	"gasworld/internal/core/id"
)

func testUser(t *testing.T) *User {
	t.Helper()
	stationID := id.New()
	return &User{
		ID:        id.New(),
		Name:      "Test Manager",
		Email:     "manager@example.com",
		Role:      appctx.RoleManager,
		StationID: &stationID,
		IsActive:  true,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret")
	u := testUser(t)

	token, expiresAt, err := tm.IssueAccess(u, "session-1")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	uc, err := tm.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), uc.UserID)
	assert.Equal(t, u.Name, uc.Name)
	assert.Equal(t, u.Email, uc.Email)
	assert.Equal(t, appctx.RoleManager, uc.Role)
	assert.Equal(t, u.StationID.String(), uc.StationID)
	assert.Equal(t, "session-1", uc.SessionID)
}

func TestAccessToken_OwnerHasNoStationClaim(t *testing.T) {
	tm := NewTokenManager("test-secret")
	u := &User{
		ID:       id.New(),
		Name:     "Owner",
		Email:    "owner@example.com",
		Role:     appctx.RoleOwner,
		IsActive: true,
	}

	token, _, err := tm.IssueAccess(u, "session-1")
	require.NoError(t, err)

	uc, err := tm.VerifyAccess(token)
	require.NoError(t, err)
	assert.Empty(t, uc.StationID)
}

func TestVerifyAccess_WrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret")
	other := NewTokenManager("other-secret")

	token, _, err := tm.IssueAccess(testUser(t), "session-1")
	require.NoError(t, err)

	_, err = other.VerifyAccess(token)
	assert.Error(t, err)
}

func TestVerifyAccess_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret")
	tm.accessTTL = -time.Minute

	token, _, err := tm.IssueAccess(testUser(t), "session-1")
	require.NoError(t, err)

	_, err = tm.VerifyAccess(token)
	assert.Error(t, err)
}

func TestVerifyAccess_Garbage(t *testing.T) {
	tm := NewTokenManager("test-secret")
	_, err := tm.VerifyAccess("not-a-token")
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	tm := NewTokenManager("test-secret")

	token, hash, expiresAt, err := tm.NewRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, HashToken(token), hash)
	assert.NotEqual(t, token, hash)
	assert.True(t, expiresAt.After(time.Now().Add(29*24*time.Hour)))

	// Tokens are unique.
	token2, _, _, err := tm.NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
}

func TestUser_PasswordHashing(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("correct horse battery"))
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotContains(t, u.PasswordHash, "correct")

	assert.True(t, u.CheckPassword("correct horse battery"))
	assert.False(t, u.CheckPassword("wrong password"))
}

func TestUser_PasswordTooShort(t *testing.T) {
	u := &User{}
	assert.Error(t, u.SetPassword("short"))
}
