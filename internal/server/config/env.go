package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "SKILLBRIDGE_"

var osLookupEnv = os.LookupEnv

// parseEnv overlays SKILLBRIDGE_* variables. Durations use time.ParseDuration
// syntax and SKILLBRIDGE_PUBLIC_PATHS is comma separated.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		return lookup(envPrefix + name)
	}

	if v, ok := get("HTTP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := get("GRPC_ADDR"); ok {
		config.EndpointAddrGRPC = v
	}
	if v, ok := get("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := get("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
	if v, ok := get("ACCESS_TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sACCESS_TOKEN_TTL: %w", envPrefix, err)
		}
		config.AccessTokenValidityDuration = d
	}
	if v, ok := get("REFRESH_TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREFRESH_TOKEN_TTL: %w", envPrefix, err)
		}
		config.RefreshTokenValidityDuration = d
	}
	if v, ok := get("PUBLIC_PATHS"); ok {
		var paths []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		config.PublicPaths = paths
	}
	if v, ok := get("RATE_LIMIT_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT_RPS: %w", envPrefix, err)
		}
		config.RateLimitRPS = f
	}
	if v, ok := get("RATE_LIMIT_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT_BURST: %w", envPrefix, err)
		}
		config.RateLimitBurst = n
	}
	return nil
}
