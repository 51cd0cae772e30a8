package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/vtx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// TokenStore is where the session's bearer token lives between runs.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

// TokenClaims holds the fields vtx reads from a session token. The signature is never checked.
type TokenClaims struct {
	UserID    string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseTokenClaims decodes the claims of a JWT without verifying it.
//
// The user id is taken from "id", "userId" or "_id", falling back to "sub".
func ParseTokenClaims(raw string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}

	tc := &TokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		tc.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		tc.IssuedAt = iat.Time
	}

	for _, key := range []string{"id", "userId", "_id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			tc.UserID = v
			break
		}
	}
	if tc.UserID == "" {
		tc.UserID = tc.Subject
	}
	return tc, nil
}

// Expired reports whether the token carries an expiry at or before now.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// storeTokenSource is an [oauth2.TokenSource] that reads the bearer token from a [TokenStore] on every call.
//
// Tokens that are not JWTs are passed through without an expiry.
type storeTokenSource struct {
	ctx   context.Context
	store TokenStore
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	raw, err := s.store.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	if raw == "" {
		return nil, shared.ErrNotAuthenticated
	}

	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if claims, err := ParseTokenClaims(raw); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok, nil
}
