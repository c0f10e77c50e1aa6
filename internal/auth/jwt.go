// Package auth issues and verifies the HS256 tokens used by the API and the portal client.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/recruiter-agent/internal/config"
	"github.com/jonathan/recruiter-agent/internal/server/middleware"
)

// Claims represents JWT claims with the owner that the token acts for.
type Claims struct {
	Owner string `json:"owner"`
	jwt.RegisteredClaims
}

// GetOwner returns the owner from the claims.
// This implements the middleware.OwnerGetter interface.
func (c *Claims) GetOwner() string {
	return c.Owner
}

// AsTokenValidator returns a TokenValidator adapter for this Service.
func (s *Service) AsTokenValidator() middleware.TokenValidator {
	return &serviceValidator{service: s}
}

type serviceValidator struct {
	service *Service
}

func (v *serviceValidator) ValidateToken(tokenString string) (middleware.OwnerGetter, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Service provides JWT token generation and validation functionality.
type Service struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewService creates a new JWT service with the given configuration.
func NewService(cfg *config.JWTConfig) *Service {
	return &Service{
		config: cfg,
		now:    time.Now,
	}
}

// GenerateToken generates a JWT token for the given owner.
func (s *Service) GenerateToken(owner string) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("owner is empty")
	}

	now := s.now()
	claims := &Claims{
		Owner: owner,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   owner,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrSignatureInvalid), errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.Owner == "" {
		return nil, fmt.Errorf("token has no owner")
	}

	return claims, nil
}
