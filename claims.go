package sightings

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims is the JWT payload the application mints and verifies. Every token
// carries both the principal type and the token kind so a token can never be
// replayed against the wrong surface.
type Claims struct {
	jwt.RegisteredClaims
	PrincipalType PrincipalKind `json:"type"`
	TokenType     TokenKind     `json:"token_type"`
}

// AccountID returns the subject claim as the account identifier.
func (c *Claims) AccountID() string {
	return c.RegisteredClaims.Subject
}

// IsAdmin reports whether the claims belong to an admin account.
func (c *Claims) IsAdmin() bool {
	return c.PrincipalType == KindAdmin
}

// IsUser reports whether the claims belong to a user account.
func (c *Claims) IsUser() bool {
	return c.PrincipalType == KindUser
}

// IsRefresh reports whether the token is a refresh credential.
func (c *Claims) IsRefresh() bool {
	return c.TokenType == TokenKindRefresh
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
