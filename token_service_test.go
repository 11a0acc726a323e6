package sightings_test

import (
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	sightings "github.com/goliatone/go-sightings"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceIssuePair(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	svc := sightings.NewTokenService(newTestConfig(),
		sightings.WithTokenServiceClock(func() time.Time { return now }),
	)

	accountID := uuid.New()
	pair, err := svc.IssuePair(sightings.KindUser, accountID)
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, now.Add(15*time.Minute), pair.AccessExpiry)
	assert.Equal(t, now.Add(7*24*time.Hour), pair.RefreshExpiry)
}

func TestTokenServiceValidateAccessToken(t *testing.T) {
	svc := sightings.NewTokenService(newTestConfig())
	accountID := uuid.New()

	pair, err := svc.IssuePair(sightings.KindAdmin, accountID)
	require.NoError(t, err)

	claims, err := svc.Validate(pair.AccessToken, sightings.TokenKindAccess)
	require.NoError(t, err)
	assert.Equal(t, accountID.String(), claims.AccountID())
	assert.Equal(t, sightings.KindAdmin, claims.PrincipalType)
	assert.Equal(t, sightings.TokenKindAccess, claims.TokenType)
	assert.True(t, claims.IsAdmin())
}

func TestTokenServiceValidateRefreshToken(t *testing.T) {
	svc := sightings.NewTokenService(newTestConfig())

	pair, err := svc.IssuePair(sightings.KindUser, uuid.New())
	require.NoError(t, err)

	claims, err := svc.Validate(pair.RefreshToken, sightings.TokenKindRefresh)
	require.NoError(t, err)
	assert.Equal(t, sightings.TokenKindRefresh, claims.TokenType)
	assert.True(t, claims.IsUser())
}

func TestTokenServiceRejectsAccessTokenOnRefresh(t *testing.T) {
	svc := sightings.NewTokenService(newTestConfig())

	pair, err := svc.IssuePair(sightings.KindAdmin, uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(pair.AccessToken, sightings.TokenKindRefresh)
	require.Error(t, err)
	assert.ErrorIs(t, err, sightings.ErrInvalidRefreshToken)
}

func TestTokenServiceRejectsRefreshTokenOnAccess(t *testing.T) {
	svc := sightings.NewTokenService(newTestConfig())

	pair, err := svc.IssuePair(sightings.KindUser, uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(pair.RefreshToken, sightings.TokenKindAccess)
	require.Error(t, err)
	assert.ErrorIs(t, err, sightings.ErrTokenTypeMismatch)
}

func TestTokenServiceExpiredAccessToken(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	issuer := sightings.NewTokenService(newTestConfig(),
		sightings.WithTokenServiceClock(func() time.Time { return past }),
	)

	pair, err := issuer.IssuePair(sightings.KindUser, uuid.New())
	require.NoError(t, err)

	svc := sightings.NewTokenService(newTestConfig())

	_, err = svc.Validate(pair.AccessToken, sightings.TokenKindAccess)
	require.Error(t, err)
	assert.ErrorIs(t, err, sightings.ErrTokenExpired)
	assert.True(t, sightings.IsTokenExpiredError(err))
}

func TestTokenServiceExpiredRefreshTokenCarriesSubCode(t *testing.T) {
	past := time.Now().Add(-30 * 24 * time.Hour)
	issuer := sightings.NewTokenService(newTestConfig(),
		sightings.WithTokenServiceClock(func() time.Time { return past }),
	)

	pair, err := issuer.IssuePair(sightings.KindAdmin, uuid.New())
	require.NoError(t, err)

	svc := sightings.NewTokenService(newTestConfig())

	_, err = svc.Validate(pair.RefreshToken, sightings.TokenKindRefresh)
	require.Error(t, err)
	assert.ErrorIs(t, err, sightings.ErrRefreshTokenExpired)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, sightings.TextCodeRefreshTokenExpired, rich.TextCode)
	assert.Equal(t, goerrors.CategoryAuthz, rich.Category)
}

func TestTokenServiceMalformedToken(t *testing.T) {
	svc := sightings.NewTokenService(newTestConfig())

	_, err := svc.Validate("not-a-jwt", sightings.TokenKindAccess)
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, sightings.TextCodeTokenMalformed, rich.TextCode)

	_, err = svc.Validate("not-a-jwt", sightings.TokenKindRefresh)
	require.Error(t, err)

	rich = nil
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, sightings.TextCodeInvalidRefreshToken, rich.TextCode)
	assert.Equal(t, goerrors.CodeForbidden, rich.Code)
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	other := newTestConfig()
	other.signingKey = "another-signing-key-9876543210"

	foreign := sightings.NewTokenService(other)
	pair, err := foreign.IssuePair(sightings.KindUser, uuid.New())
	require.NoError(t, err)

	svc := sightings.NewTokenService(newTestConfig())

	_, err = svc.Validate(pair.AccessToken, sightings.TokenKindAccess)
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, sightings.TextCodeTokenMalformed, rich.TextCode)
}
