// Package authware provides router middleware that resolves the request's
// principal from either the admin session cookie or a user bearer token.
package authware

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-sightings"
)

var ErrTokenMissing = errors.New("missing or malformed credential")

// PrincipalResolver validates an access credential of the expected kind and
// loads the account behind it. *sightings.AuthResolver satisfies it.
type PrincipalResolver interface {
	ResolveAccess(ctx context.Context, tokenString string, expect sightings.PrincipalKind) (*sightings.Principal, error)
	Resolve(ctx context.Context, adminToken, userToken string) (*sightings.Principal, error)
}

type Config struct {
	Filter          func(router.Context) bool
	SuccessHandler  router.HandlerFunc
	ErrorHandler    router.ErrorHandler
	Resolver        PrincipalResolver
	ContextKey      string
	AdminCookieName string
	AuthScheme      string
	AuthHeader      string

	// ContextEnricher propagates the principal to the standard Go context.
	ContextEnricher func(c context.Context, p *sightings.Principal) context.Context
}

// RequireAdmin accepts only the admin session cookie.
func RequireAdmin(config ...Config) router.MiddlewareFunc {
	cfg := getDefaultConfig(config...)
	return principalware(cfg, func(ctx router.Context) (*sightings.Principal, error) {
		token := ctx.Cookies(cfg.AdminCookieName)
		if token == "" {
			return nil, ErrTokenMissing
		}
		return cfg.Resolver.ResolveAccess(ctx.Context(), token, sightings.KindAdmin)
	})
}

// RequireUser accepts only a user bearer token.
func RequireUser(config ...Config) router.MiddlewareFunc {
	cfg := getDefaultConfig(config...)
	return principalware(cfg, func(ctx router.Context) (*sightings.Principal, error) {
		token, err := bearerToken(ctx, cfg.AuthHeader, cfg.AuthScheme)
		if err != nil {
			return nil, err
		}
		return cfg.Resolver.ResolveAccess(ctx.Context(), token, sightings.KindUser)
	})
}

// RequireAny tries the admin cookie first and falls back to the user bearer
// token. Requests carrying neither are rejected.
func RequireAny(config ...Config) router.MiddlewareFunc {
	cfg := getDefaultConfig(config...)
	return principalware(cfg, func(ctx router.Context) (*sightings.Principal, error) {
		adminToken := ctx.Cookies(cfg.AdminCookieName)
		userToken, _ := bearerToken(ctx, cfg.AuthHeader, cfg.AuthScheme)

		if adminToken == "" && userToken == "" {
			return nil, ErrTokenMissing
		}

		return cfg.Resolver.Resolve(ctx.Context(), adminToken, userToken)
	})
}

func principalware(cfg Config, resolve func(router.Context) (*sightings.Principal, error)) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			principal, err := resolve(ctx)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, principal)

			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				ctx.SetContext(cfg.ContextEnricher(stdCtx, principal))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func getDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("AUTH: principal middleware configuration: Resolver is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return sightings.RespondError(c, normalizeAuthError(err))
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "principal"
	}

	if cfg.AdminCookieName == "" {
		cfg.AdminCookieName = "adminToken"
	}

	if cfg.AuthHeader == "" {
		cfg.AuthHeader = router.HeaderAuthorization
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ContextEnricher == nil {
		cfg.ContextEnricher = func(c context.Context, p *sightings.Principal) context.Context {
			return sightings.WithPrincipal(c, p)
		}
	}

	return cfg
}

func normalizeAuthError(err error) error {
	switch {
	case errors.Is(err, ErrTokenMissing),
		errors.Is(err, sightings.ErrIdentityNotFound),
		errors.Is(err, sightings.ErrUnableToDecodeSession):
		return sightings.ErrUnauthenticated
	}
	return err
}

func bearerToken(c router.Context, header, authScheme string) (string, error) {
	a := c.GetString(header, "")
	l := len(authScheme)
	if l == 0 {
		return "", ErrTokenMissing
	}
	authScheme = strings.TrimSpace(authScheme)
	if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
		return strings.TrimSpace(a[l:]), nil
	}
	return "", ErrTokenMissing
}
