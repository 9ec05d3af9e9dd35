// Package utils provides helpers for token signing, hashing and request parsing.
package utils

import (
	"crypto/sha256"
	"encoding/hex"  // hex encoding of the digest
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"       // unique token ids
)

// TokenType discriminates access tokens from refresh tokens. It is carried
// in the "type" claim so the two cannot be used interchangeably.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// ErrWrongTokenType is returned when a token verifies but carries the other
// type discriminator.
var ErrWrongTokenType = errors.New("token type mismatch")

// Claims is the payload of both token kinds. Subject holds the user id and
// ID (jti) is random per token so two tokens minted in the same second for
// the same user never collide.
type Claims struct {
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Type  TokenType `json:"type"`
	jwt.RegisteredClaims
}

// SignedToken is a serialized JWT with the times it was minted for.
type SignedToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SignToken builds and signs an HS256 JWT of the given type.
func SignToken(secret string, typ TokenType, subject, email, role string, ttl time.Duration, now time.Time) (SignedToken, error) {
	now = now.UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Email: email,
		Role:  role,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, IssuedAt: now, ExpiresAt: exp}, nil
}

// ParseToken verifies signature, expiry and type of raw. Only HMAC-SHA256
// is accepted.
func ParseToken(secret, raw string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}
	return claims, nil
}

// ExpiryOf decodes the exp claim of raw without verifying it.
func ExpiryOf(raw string) (time.Time, bool) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time.UTC(), true
}

// HashRefreshRaw returns the hex SHA-256 digest of a refresh token. Only the
// digest is persisted, so a leaked table cannot be replayed.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
