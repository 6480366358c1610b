package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer token payload: an expiry plus the session row id the
// credential is bound to.
type Claims struct {
	Session int `json:"session"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies bearer credentials (HS512).
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl}
}

// Sign mints a token bound to sessionID, expiring after the configured TTL.
func (c *TokenCodec) Sign(sessionID int) (string, error) {
	claims := Claims{
		Session: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded session id.
// Any failure is ErrInvalidCredential; no database access happens here.
func (c *TokenCodec) Verify(tokenStr string) (int, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil || !token.Valid {
		return 0, errors.Join(ErrInvalidCredential, err)
	}
	if claims.ExpiresAt == nil || claims.Session == 0 {
		return 0, ErrInvalidCredential
	}
	return claims.Session, nil
}
