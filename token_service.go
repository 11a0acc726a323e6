package sightings

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPair is an access/refresh credential pair minted together.
type TokenPair struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	AccessExpiry  time.Time `json:"access_expiry"`
	RefreshExpiry time.Time `json:"refresh_expiry"`
}

// TokenService mints and validates the application's own JWTs. Access tokens
// are short lived, refresh tokens long lived, and both carry the principal
// type discriminator.
type TokenService interface {
	IssuePair(kind PrincipalKind, accountID uuid.UUID) (*TokenPair, error)
	Validate(tokenString string, expect TokenKind) (*Claims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// TokenServiceOption configures a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenServiceClock overrides the clock, mostly for tests
func WithTokenServiceClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenServiceLogger sets the logger
func WithTokenServiceLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, opts ...TokenServiceOption) TokenService {
	ts := &TokenServiceImpl{
		signingKey: []byte(cfg.GetSigningKey()),
		accessTTL:  time.Duration(cfg.GetAccessTokenDuration()) * time.Minute,
		refreshTTL: time.Duration(cfg.GetRefreshTokenDuration()) * time.Minute,
		issuer:     cfg.GetIssuer(),
		audience:   jwt.ClaimStrings(cfg.GetAudience()),
		logger:     defLogger{},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(ts)
	}

	return ts
}

// IssuePair mints an access and a refresh token for the given account.
func (ts *TokenServiceImpl) IssuePair(kind PrincipalKind, accountID uuid.UUID) (*TokenPair, error) {
	now := ts.now()

	access, accessExp, err := ts.sign(kind, accountID, TokenKindAccess, now, ts.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := ts.sign(kind, accountID, TokenKindRefresh, now, ts.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessExpiry:  accessExp,
		RefreshExpiry: refreshExp,
	}, nil
}

func (ts *TokenServiceImpl) sign(kind PrincipalKind, accountID uuid.UUID, tokenKind TokenKind, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   accountID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		PrincipalType: kind,
		TokenType:     tokenKind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, exp, nil
}

// Validate parses a token string and enforces the expected token kind. An
// expired refresh token surfaces as ErrRefreshTokenExpired so handlers can
// emit the sub code clients key on.
func (ts *TokenServiceImpl) Validate(tokenString string, expect TokenKind) (*Claims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: alg %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if expect == TokenKindRefresh {
				return nil, ErrRefreshTokenExpired
			}
			return nil, ErrTokenExpired
		}
		if expect == TokenKindRefresh {
			return nil, errors.Wrap(err, ErrInvalidRefreshToken.Category, ErrInvalidRefreshToken.Message).
				WithTextCode(ErrInvalidRefreshToken.TextCode).
				WithCode(ErrInvalidRefreshToken.Code)
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrUnableToDecodeSession
	}

	if claims.TokenType != expect {
		if expect == TokenKindRefresh {
			return nil, ErrInvalidRefreshToken
		}
		return nil, ErrTokenTypeMismatch
	}

	return claims, nil
}
