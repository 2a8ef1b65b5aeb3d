package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 24, 48)

	token, err := tm.GenerateToken("u1", "discord-1", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "discord-1", claims.DiscordID)
	assert.True(t, claims.Admin)
}

func TestParseToken_WrongSecret(t *testing.T) {
	tm := NewTokenManager(testSecret, 24, 48)
	other := NewTokenManager("a-different-secret", 24, 48)

	token, err := tm.GenerateToken("u1", "discord-1", false)
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	tm := NewTokenManager(testSecret, 24, 48)

	_, err := tm.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, 24, 48)

	expired := signClaims(t, Claims{
		UserID: "u1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	})

	_, err := tm.ParseToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseToken_NotYetValid(t *testing.T) {
	tm := NewTokenManager(testSecret, 24, 48)

	future := signClaims(t, Claims{
		UserID: "u1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(2 * time.Hour)),
			NotBefore: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := tm.ParseToken(future)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestParseToken_RejectsWrongSigningMethod(t *testing.T) {
	tm := NewTokenManager(testSecret, 24, 48)

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{UserID: "u1"})
	unsigned, err := token.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken_WithinWindow(t *testing.T) {
	tm := NewTokenManager(testSecret, 24, 48)

	// Expired an hour ago, well inside the 48h refresh window.
	expired := signClaims(t, Claims{
		UserID:    "u1",
		DiscordID: "discord-1",
		Admin:     true,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	refreshed, err := tm.RefreshToken(expired)
	require.NoError(t, err)

	claims, err := tm.ParseToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.Admin)
}

func TestRefreshToken_OutsideWindow(t *testing.T) {
	tm := NewTokenManager(testSecret, 24, 1)

	longExpired := signClaims(t, Claims{
		UserID: "u1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	})
	_, err := tm.RefreshToken(longExpired)
	assert.Error(t, err)

	// A fresh 24h token is not close enough to expiry to refresh.
	fresh, err := tm.GenerateToken("u1", "discord-1", false)
	require.NoError(t, err)
	_, err = tm.RefreshToken(fresh)
	assert.Error(t, err)
}

func signClaims(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}
