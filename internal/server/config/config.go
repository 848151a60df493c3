// Package config handles configuration for the auth server: defaults, an
// optional JSON file, SKILLBRIDGE_* environment variables and command-line
// flags, applied in that order.
package config

import (
	"fmt"
	"time"

	"github.com/skillbridge/auth/internal/common"
)

// DefaultPublicPaths are reachable without credentials. A trailing "/**"
// matches the prefix and everything below it.
var DefaultPublicPaths = []string{
	"/api/v1/auth/**",
	"/v2/api-docs",
	"/v3/api-docs",
	"/v3/api-docs/**",
	"/swagger-resources",
	"/swagger-resources/**",
	"/configuration/ui",
	"/configuration/security",
	"/swagger-ui/**",
	"/webjars/**",
	"/swagger-ui.html",
	"/health",
}

// Config holds runtime settings for the auth server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses; an empty gRPC
//     address disables the gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx) or "memory".
//   - SecretKey: base64 HMAC secret for HS256, at least 256 bits once decoded.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - PublicPaths: request paths that bypass authentication.
//   - RateLimitRPS / RateLimitBurst: per-client limit on credential endpoints;
//     zero RPS disables limiting.
type Config struct {
	EndpointAddrHTTP             string
	EndpointAddrGRPC             string
	DatabaseDSN                  string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	LogLevel                     string
	PublicPaths                  []string
	RateLimitRPS                 float64
	RateLimitBurst               int
}

// LoadDefaults populates Config with development defaults. The signing
// secret and both token lifetimes have no default and must be configured.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "memory"
	c.LogLevel = "info"
	c.PublicPaths = append([]string(nil), DefaultPublicPaths...)
	c.RateLimitRPS = 5
	c.RateLimitBurst = 10
}

// Validate reports missing or inconsistent settings. The server must not
// start when it fails.
func (c *Config) Validate() error {
	switch {
	case c.SecretKey == "":
		return fmt.Errorf("%w: secret key", common.ErrConfigurationMissing)
	case c.AccessTokenValidityDuration <= 0:
		return fmt.Errorf("%w: access token validity", common.ErrConfigurationMissing)
	case c.RefreshTokenValidityDuration <= 0:
		return fmt.Errorf("%w: refresh token validity", common.ErrConfigurationMissing)
	case c.EndpointAddrHTTP == "":
		return fmt.Errorf("%w: http endpoint address", common.ErrConfigurationMissing)
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database dsn", common.ErrConfigurationMissing)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, osLookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
