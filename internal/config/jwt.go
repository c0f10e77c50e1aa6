// Package config provides JWT configuration functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultIssuer is the issuer claim on tokens minted by this service.
const DefaultIssuer = "recruiter-agent"

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationStr := os.Getenv("JWT_EXPIRATION_HOURS")
	if expirationStr == "" {
		expirationStr = "24" // default
	}

	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
	}

	return NewJWTConfigFromSecret(secret, time.Duration(expirationHours)*time.Hour)
}

// NewJWTConfigFromSecret builds a JWT configuration from explicit values.
// Portal request signing uses this with the configured portal secret.
func NewJWTConfigFromSecret(secret string, expiration time.Duration) (*JWTConfig, error) {
	config := &JWTConfig{
		Secret:     secret,
		Expiration: expiration,
		Issuer:     DefaultIssuer,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT secret cannot be empty")
	}
	if c.Expiration < time.Minute {
		return fmt.Errorf("JWT expiration must be at least 1 minute, got: %s", c.Expiration)
	}
	return nil
}
