package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret-access-secret-0123456789"
	refreshSecret = "refresh-secret-refresh-secret-0123456789"
)

func TestSignAndParseRoundTrip(t *testing.T) {
	now := time.Now()
	tok, err := SignToken(accessSecret, TokenAccess, "user-1", "user@example.com", "USER", 15*time.Minute, now)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, now.Add(15*time.Minute), tok.ExpiresAt, time.Second)

	claims, err := ParseToken(accessSecret, tok.Token, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, TokenAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)
}

func TestTokensMintedTogetherDiffer(t *testing.T) {
	now := time.Now()
	a, err := SignToken(refreshSecret, TokenRefresh, "user-1", "u@x.io", "USER", time.Hour, now)
	require.NoError(t, err)
	b, err := SignToken(refreshSecret, TokenRefresh, "user-1", "u@x.io", "USER", time.Hour, now)
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, HashRefreshRaw(a.Token), HashRefreshRaw(b.Token))
}

func TestParseRejectsWrongType(t *testing.T) {
	tok, err := SignToken(accessSecret, TokenRefresh, "user-1", "u@x.io", "USER", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseToken(accessSecret, tok.Token, TokenAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := SignToken(accessSecret, TokenAccess, "user-1", "u@x.io", "USER", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseToken(refreshSecret, tok.Token, TokenAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseRejectsExpired(t *testing.T) {
	tok, err := SignToken(accessSecret, TokenAccess, "user-1", "u@x.io", "USER", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseToken(accessSecret, tok.Token, TokenAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{Type: TokenAccess, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(accessSecret, raw, TokenAccess)
	assert.Error(t, err)
}

func TestExpiryOf(t *testing.T) {
	now := time.Now()
	tok, err := SignToken(refreshSecret, TokenRefresh, "user-1", "u@x.io", "USER", 48*time.Hour, now)
	require.NoError(t, err)

	exp, ok := ExpiryOf(tok.Token)
	require.True(t, ok)
	assert.WithinDuration(t, now.Add(48*time.Hour), exp, time.Second)

	_, ok = ExpiryOf("not-a-jwt")
	assert.False(t, ok)
}

func TestHashRefreshRaw(t *testing.T) {
	h := HashRefreshRaw("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, strings.ToLower(h), h)
	assert.Equal(t, h, HashRefreshRaw("abc"))
}
