// Package firebase verifies Firebase issued ID tokens against Google's
// published signing keys.
package firebase

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-sightings"
)

const defaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// Config holds the verifier settings for a Firebase project.
type Config struct {
	// ProjectID is the Firebase project, used for issuer and audience checks.
	ProjectID string
	// JWKSURL overrides the Google secure token key endpoint, mostly for tests.
	JWKSURL string
	// RefreshInterval controls background JWKS refreshes.
	RefreshInterval time.Duration
	// Keyfunc overrides JWKS resolution entirely, mostly for tests.
	Keyfunc jwt.Keyfunc
}

// Verifier validates Firebase ID tokens. It satisfies sightings.FirebaseVerifier.
type Verifier struct {
	config  Config
	keyfunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
}

var _ sightings.FirebaseVerifier = (*Verifier)(nil)

type idTokenClaims struct {
	jwt.RegisteredClaims
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// NewVerifier creates a verifier backed by Google's JWKS endpoint.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase: project id is required")
	}

	v := &Verifier{config: cfg}

	if cfg.Keyfunc != nil {
		v.keyfunc = cfg.Keyfunc
		return v, nil
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = defaultJWKSURL
	}

	refreshInterval := cfg.RefreshInterval
	if refreshInterval == 0 {
		refreshInterval = time.Hour
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   refreshInterval,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("firebase: failed to load JWKS: %w", err)
	}

	v.jwks = jwks
	v.keyfunc = jwks.Keyfunc

	return v, nil
}

// Close stops the background JWKS refresh.
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// VerifyIDToken implements sightings.FirebaseVerifier.
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*sightings.FirebaseIdentity, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.config.ProjectID),
		jwt.WithAudience(v.config.ProjectID),
	)
	if err != nil {
		return nil, normalizeValidationError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, sightings.ErrTokenMalformed
	}

	return &sightings.FirebaseIdentity{
		UID:           claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
	}, nil
}

func normalizeValidationError(err error) error {
	if err == nil {
		return nil
	}

	clone := sightings.ErrTokenMalformed.Clone()
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		clone = sightings.ErrTokenExpired.Clone()
	}

	if clone == nil {
		return err
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"provider": "firebase",
		"cause":    err.Error(),
	})
}
