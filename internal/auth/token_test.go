package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researcherhojin/emelmujiro/internal/models"
)

func testTokenManager() *TokenManager {
	return NewTokenManager("test-secret-32-characters-long-for-testing", 15*time.Minute, 7*24*time.Hour)
}

func testUser() *models.User {
	return &models.User{
		ID:    "1b671a64-40d5-491e-99b0-da01ff1f3341",
		Email: "admin@example.com",
		Role:  "admin",
	}
}

func TestTokenManager_AccessTokenRoundTrip(t *testing.T) {
	tm := testTokenManager()
	user := testUser()

	token, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.Type)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
	assert.NotEmpty(t, claims.ID, "every token carries a JTI for revocation")
}

func TestTokenManager_RefreshTokenType(t *testing.T) {
	tm := testTokenManager()

	token, err := tm.GenerateRefreshToken(testUser())
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.Type)
}

func TestTokenManager_UniqueJTIs(t *testing.T) {
	tm := testTokenManager()
	user := testUser()

	first, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)
	second, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)

	firstClaims, err := tm.ValidateToken(first)
	require.NoError(t, err)
	secondClaims, err := tm.ValidateToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	token, err := testTokenManager().GenerateAccessToken(testUser())
	require.NoError(t, err)

	other := NewTokenManager("another-secret-32-characters-long!!", 15*time.Minute, 7*24*time.Hour)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret-32-characters-long-for-testing", -1*time.Minute, 7*24*time.Hour)

	token, err := tm.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	_, err := testTokenManager().ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
