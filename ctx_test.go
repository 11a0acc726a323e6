package sightings

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPrincipalFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantOK   bool
	}{
		{
			name: "should return principal when present in context",
			setupCtx: func() context.Context {
				p := AdminPrincipal(&Admin{ID: uuid.New(), Email: "admin@example.com"})
				return WithPrincipal(context.Background(), p)
			},
			wantOK: true,
		},
		{
			name: "should return false when no principal in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
			wantOK: false,
		},
		{
			name: "should return false when context has wrong type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), principalCtxKey, "not-a-principal")
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := tt.setupCtx()
			p, ok := PrincipalFromContext(ctx)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.NotNil(t, p)
			} else {
				assert.Nil(t, p)
			}
		})
	}
}

func TestClaimsFromContext(t *testing.T) {
	claims := &Claims{PrincipalType: KindUser, TokenType: TokenKindAccess}
	ctx := WithClaims(context.Background(), claims)

	got, ok := ClaimsFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, got)

	_, ok = ClaimsFromContext(context.Background())
	assert.False(t, ok)
}

func TestPrincipalFromRouter(t *testing.T) {
	principal := UserPrincipal(&User{ID: uuid.New(), Name: "Dana"})

	ctx := router.NewMockContext()
	ctx.LocalsMock["principal"] = principal

	got, ok := PrincipalFromRouter(ctx, "")
	assert.True(t, ok)
	assert.Equal(t, principal, got)
}

func TestPrincipalFromRouterMissing(t *testing.T) {
	ctx := router.NewMockContext()

	got, ok := PrincipalFromRouter(ctx, "principal")
	assert.False(t, ok)
	assert.Nil(t, got)
}
