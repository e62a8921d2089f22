package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"insights-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	signingKey []byte
	expiration time.Duration
)

// TenantClaims represents the JWT claims issued to a tenant admin. The
// tenant ID is the only value downstream handlers trust for scoping.
type TenantClaims struct {
	TenantID uint   `json:"tenant_id"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Initialize sets the signing key and token lifetime from configuration
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	expiration = time.Duration(cfg.ExpirationHours) * time.Hour
}

// GenerateToken creates a JWT token carrying the tenant identity
func GenerateToken(tenantID uint, email string) (string, error) {
	if len(signingKey) == 0 {
		return "", errors.New("JWT configuration not provided")
	}

	claims := TenantClaims{
		TenantID: tenantID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*TenantClaims, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*TenantClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
