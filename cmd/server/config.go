package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Persistence holds database connection and migration options.
type Persistence struct {
	Debug                 bool
	Driver                string
	Server                string
	DSN                   string
	Database              string
	PingTimeoutExpression string
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetDriver() string {
	return p.Driver
}

func (p Persistence) GetServer() string {
	return p.Server
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetDatabase() string {
	return p.Database
}

func (p Persistence) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

// Firebase holds the Google secure token verification options for the
// mobile client login path. Login is disabled when ProjectID is empty.
type Firebase struct {
	ProjectID       string
	JWKSURL         string
	RefreshInterval time.Duration
}

// FCM holds the push notification options. Dispatch is disabled when
// ServerKey is empty.
type FCM struct {
	ServerKey string
	Topic     string
	Timeout   time.Duration
}

// AppConfig is the process configuration, loaded from the environment.
// It satisfies sightings.Config for the token and session components.
type AppConfig struct {
	Port                   string
	Debug                  bool
	SigningKey             string
	SigningMethod          string
	Issuer                 string
	Audience               []string
	AccessTokenDuration    int
	RefreshTokenDuration   int
	AdminCookieName        string
	AdminRefreshCookieName string
	AuthScheme             string
	Persistence            Persistence
	Firebase               Firebase
	FCM                    FCM
}

func (c AppConfig) GetSigningKey() string             { return c.SigningKey }
func (c AppConfig) GetSigningMethod() string          { return c.SigningMethod }
func (c AppConfig) GetIssuer() string                 { return c.Issuer }
func (c AppConfig) GetAudience() []string             { return c.Audience }
func (c AppConfig) GetAccessTokenDuration() int       { return c.AccessTokenDuration }
func (c AppConfig) GetRefreshTokenDuration() int      { return c.RefreshTokenDuration }
func (c AppConfig) GetAdminCookieName() string        { return c.AdminCookieName }
func (c AppConfig) GetAdminRefreshCookieName() string { return c.AdminRefreshCookieName }
func (c AppConfig) GetAuthScheme() string             { return c.AuthScheme }

func (c AppConfig) Validate() error {
	if c.SigningKey == "" {
		return fmt.Errorf("SIGHTINGS_SIGNING_KEY is required")
	}
	if c.AccessTokenDuration <= 0 || c.RefreshTokenDuration <= 0 {
		return fmt.Errorf("token durations must be positive")
	}
	return nil
}

// LoadConfig reads process configuration from the environment, falling
// back to development defaults. Access tokens default to 15 minutes and
// refresh tokens to 7 days, expressed in minutes.
func LoadConfig() (AppConfig, error) {
	cfg := AppConfig{
		Port:                   env("SIGHTINGS_PORT", "9876"),
		Debug:                  envBool("SIGHTINGS_DEBUG", false),
		SigningKey:             env("SIGHTINGS_SIGNING_KEY", ""),
		SigningMethod:          env("SIGHTINGS_SIGNING_METHOD", "HS256"),
		Issuer:                 env("SIGHTINGS_ISSUER", "sightings"),
		Audience:               []string{env("SIGHTINGS_AUDIENCE", "sightings-api")},
		AccessTokenDuration:    envInt("SIGHTINGS_ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDuration:   envInt("SIGHTINGS_REFRESH_TOKEN_MINUTES", 7*24*60),
		AdminCookieName:        env("SIGHTINGS_ADMIN_COOKIE", "adminToken"),
		AdminRefreshCookieName: env("SIGHTINGS_ADMIN_REFRESH_COOKIE", "adminRefreshToken"),
		AuthScheme:             env("SIGHTINGS_AUTH_SCHEME", "Bearer"),
		Persistence: Persistence{
			Debug:                 envBool("SIGHTINGS_DB_DEBUG", false),
			Driver:                env("SIGHTINGS_DB_DRIVER", "sqlite"),
			Server:                env("SIGHTINGS_DB_SERVER", ""),
			DSN:                   env("SIGHTINGS_DB_DSN", "file:sightings.db?cache=shared&_pragma=foreign_keys(1)"),
			Database:              env("SIGHTINGS_DB_NAME", "sightings"),
			PingTimeoutExpression: env("SIGHTINGS_DB_PING_TIMEOUT", "5s"),
		},
		Firebase: Firebase{
			ProjectID:       env("SIGHTINGS_FIREBASE_PROJECT_ID", ""),
			JWKSURL:         env("SIGHTINGS_FIREBASE_JWKS_URL", ""),
			RefreshInterval: envDuration("SIGHTINGS_FIREBASE_JWKS_REFRESH", time.Hour),
		},
		FCM: FCM{
			ServerKey: env("SIGHTINGS_FCM_SERVER_KEY", ""),
			Topic:     env("SIGHTINGS_FCM_TOPIC", "sightings"),
			Timeout:   envDuration("SIGHTINGS_FCM_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func env(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return parsed
}

func envBool(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}

func envDuration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return parsed
}
