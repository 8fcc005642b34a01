package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Environment variable names. DATABASE_URL, JWT_SECRET and JWT_ALGORITHM
// keep the names the deployment already uses.
const (
	envHTTPAddr         = "HTTP_ADDR"
	envDatabaseURL      = "DATABASE_URL"
	envJWTSecret        = "JWT_SECRET"
	envJWTAlgorithm     = "JWT_ALGORITHM"
	envAccessTokenTTL   = "ACCESS_TOKEN_TTL"
	envRefreshTokenTTL  = "REFRESH_TOKEN_TTL"
	envPasswordHashCost = "PASSWORD_HASH_COST"
	envS3AccessKey      = "S3_ACCESS_KEY"
	envS3SecretKey      = "S3_SECRET_KEY"
	envS3Bucket         = "S3_BUCKET"
	envS3Region         = "S3_REGION"
	envS3Endpoint       = "S3_ENDPOINT"
	envS3PublicURL      = "S3_PUBLIC_URL"
	envSeedFile         = "SEED_FILE"
	envLogFormat        = "LOG_FORMAT"
	envLogLevel         = "LOG_LEVEL"
	envTrustedProxies   = "TRUSTED_PROXIES"
)

// parseEnv overlays values from the environment. Unset variables are skipped.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(&config.HTTPAddr, envHTTPAddr)
	str(&config.DatabaseDSN, envDatabaseURL)
	str(&config.SecretKey, envJWTSecret)
	str(&config.SigningAlgorithm, envJWTAlgorithm)
	str(&config.S3AccessKey, envS3AccessKey)
	str(&config.S3SecretKey, envS3SecretKey)
	str(&config.S3Bucket, envS3Bucket)
	str(&config.S3Region, envS3Region)
	str(&config.S3BaseEndpoint, envS3Endpoint)
	str(&config.S3PublicBaseURL, envS3PublicURL)
	str(&config.SeedFile, envSeedFile)
	str(&config.LogFormat, envLogFormat)
	str(&config.LogLevel, envLogLevel)

	if v, ok := lookup(envTrustedProxies); ok && v != "" {
		config.TrustedProxies = splitList(v)
	}

	if v, ok := lookup(envAccessTokenTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envAccessTokenTTL, err)
		}
		config.AccessTokenValidityDuration = d
	}
	if v, ok := lookup(envRefreshTokenTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envRefreshTokenTTL, err)
		}
		config.RefreshTokenValidityDuration = d
	}
	if v, ok := lookup(envPasswordHashCost); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envPasswordHashCost, err)
		}
		config.PasswordHashCost = n
	}
	return nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
