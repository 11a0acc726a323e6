package sightings

import (
	"time"

	"github.com/goliatone/go-router"
)

// AdminSession manages the cookie pair backing the back office session. The
// access cookie expires with the access token, the refresh cookie with the
// refresh token, both HTTP only so scripts never see them.
type AdminSession struct {
	cfg    Config
	Logger Logger
}

// NewAdminSession creates a cookie session helper for admin accounts.
func NewAdminSession(cfg Config) *AdminSession {
	return &AdminSession{
		cfg:    cfg,
		Logger: defLogger{},
	}
}

// Set writes both session cookies from a freshly minted token pair.
func (a *AdminSession) Set(ctx router.Context, pair *TokenPair) {
	a.setCookie(ctx, a.cfg.GetAdminCookieName(), pair.AccessToken, pair.AccessExpiry)
	a.setCookie(ctx, a.cfg.GetAdminRefreshCookieName(), pair.RefreshToken, pair.RefreshExpiry)
}

// Clear expires both session cookies.
func (a *AdminSession) Clear(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetAdminCookieName())
	a.cookieDel(ctx, a.cfg.GetAdminRefreshCookieName())
}

// AccessToken reads the access credential cookie, empty when absent.
func (a *AdminSession) AccessToken(ctx router.Context) string {
	return ctx.Cookies(a.cfg.GetAdminCookieName())
}

// RefreshToken reads the refresh credential cookie, empty when absent.
func (a *AdminSession) RefreshToken(ctx router.Context) string {
	return ctx.Cookies(a.cfg.GetAdminRefreshCookieName())
}

func (a *AdminSession) setCookie(c router.Context, name, val string, expires time.Time) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *AdminSession) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
