package utils

import (
	"errors"
	"time"

	"joservice/config"
	"joservice/models"

	"github.com/golang-jwt/jwt"
)

const devSecret = "joservice-dev-secret"

// signingKey returns the HMAC secret. Outside production an unset secret falls back to a dev key.
func signingKey() ([]byte, error) {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		if config.IsProduction() {
			return nil, errors.New("JWT_SECRET is not configured")
		}
		secret = devSecret
	}
	return []byte(secret), nil
}

// GenerateToken creates a signed JWT for the principal. Tokens are normally issued by
// the account service; this is used by tooling and tests.
func GenerateToken(p models.Principal, duration time.Duration) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"sub":  p.ID,
		"role": p.Role.String(),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
}

// ExtractPrincipalFromToken returns the (sub, role) pair of a valid token.
func ExtractPrincipalFromToken(tokenString string) (models.Principal, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return models.Principal{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Principal{}, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Principal{}, errors.New("token does not contain a valid 'sub' claim")
	}
	roleClaim, ok := claims["role"].(string)
	if !ok {
		return models.Principal{}, errors.New("token does not contain a 'role' claim")
	}
	role, err := models.ParseRole(roleClaim)
	if err != nil {
		return models.Principal{}, err
	}

	return models.Principal{ID: sub, Role: role}, nil
}
