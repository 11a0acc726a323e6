package sightings

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found")

// ErrUnableToDecodeSession is the error we return when we can't decode claims
var ErrUnableToDecodeSession = errors.New("unable to decode session claims")

// ErrNoEmptyString guards against hashing empty passwords
var ErrNoEmptyString = errors.New("value must not be an empty string")

// ErrMismatchedHashAndPassword is returned on credential mismatch
var ErrMismatchedHashAndPassword = errors.New("credentials do not match")

const (
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeTokenTypeMismatch   = "TOKEN_TYPE_MISMATCH"
	TextCodeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
	TextCodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
)

// ErrTokenExpired is returned for structurally valid but expired credentials.
// The text code lets clients distinguish "refresh me" from "log in again".
var ErrTokenExpired = goerrors.New("authentication token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a credential fails signature or shape checks.
var ErrTokenMalformed = goerrors.New("authentication token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenTypeMismatch is returned when a token's type discriminator does not
// match the expected principal kind, e.g. a user token replayed on an admin route.
var ErrTokenTypeMismatch = goerrors.New("authentication token type mismatch", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenTypeMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshTokenExpired is returned when a refresh credential is expired.
var ErrRefreshTokenExpired = goerrors.New("refresh token is expired", goerrors.CategoryAuthz).
	WithTextCode(TextCodeRefreshTokenExpired).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidRefreshToken is returned for any non-expiry refresh failure.
var ErrInvalidRefreshToken = goerrors.New("refresh token is invalid", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInvalidRefreshToken).
	WithCode(goerrors.CodeForbidden)

// ErrUnauthenticated is the catch-all for requests with no usable credential.
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode("UNAUTHENTICATED").
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
