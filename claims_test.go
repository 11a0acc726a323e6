package sightings_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	sightings "github.com/goliatone/go-sightings"
	"github.com/stretchr/testify/assert"
)

func TestClaims_AccountID(t *testing.T) {
	claims := &sightings.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "account-123",
		},
	}

	assert.Equal(t, "account-123", claims.AccountID())
}

func TestClaims_PrincipalTypeHelpers(t *testing.T) {
	admin := &sightings.Claims{PrincipalType: sightings.KindAdmin}
	user := &sightings.Claims{PrincipalType: sightings.KindUser}

	assert.True(t, admin.IsAdmin())
	assert.False(t, admin.IsUser())
	assert.True(t, user.IsUser())
	assert.False(t, user.IsAdmin())
}

func TestClaims_IsRefresh(t *testing.T) {
	access := &sightings.Claims{TokenType: sightings.TokenKindAccess}
	refresh := &sightings.Claims{TokenType: sightings.TokenKindRefresh}

	assert.False(t, access.IsRefresh())
	assert.True(t, refresh.IsRefresh())
}

func TestClaims_Expires(t *testing.T) {
	t.Run("returns expiry when present", func(t *testing.T) {
		exp := time.Now().Add(15 * time.Minute)
		claims := &sightings.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		}

		assert.WithinDuration(t, exp, claims.Expires(), time.Second)
	})

	t.Run("zero value when absent", func(t *testing.T) {
		claims := &sightings.Claims{}

		assert.True(t, claims.Expires().IsZero())
	})
}

func TestClaims_IssuedAt(t *testing.T) {
	iat := time.Now()
	claims := &sightings.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(iat),
		},
	}

	assert.WithinDuration(t, iat, claims.IssuedAt(), time.Second)
	assert.True(t, (&sightings.Claims{}).IssuedAt().IsZero())
}
