// Package auth issues and verifies session tokens. The grid core only ever
// asks one question of it: does an authenticated session exist. Identity is
// used for keying storage, never inspected by the planning logic.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies short-lived session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer with the given signing secret and token
// lifetime.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue creates a signed token for a user.
func (i *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks a token's signature and expiry and returns the user ID it
// was issued for.
func (i *TokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("session token has no subject")
	}
	return claims.Subject, nil
}

// Session is the authentication state for one editing session. It satisfies
// the scheduler's gate: an anonymous session still walks the scheduler's
// states, but no outbound save is made for it.
type Session struct {
	userID string
}

// NewSession creates an authenticated session for a user.
func NewSession(userID string) *Session {
	return &Session{userID: userID}
}

// Anonymous returns a session with no authenticated user.
func Anonymous() *Session {
	return &Session{}
}

// FromToken verifies a token against the issuer and returns the session it
// represents; a bad token yields an anonymous session plus the error.
func FromToken(issuer *TokenIssuer, token string) (*Session, error) {
	userID, err := issuer.Verify(token)
	if err != nil {
		return Anonymous(), err
	}
	return NewSession(userID), nil
}

// IsAuthenticated reports whether a user is signed in.
func (s *Session) IsAuthenticated() bool {
	return s.userID != ""
}

// UserID returns the signed-in user's identifier, or "" for anonymous
// sessions.
func (s *Session) UserID() string {
	return s.userID
}
