package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

var (
	mu          sync.RWMutex
	jwtSecret   = []byte("development-insecure-secret-change-me")
	jwtIssuer   = "asset-registry-api"
	jwtAudience = "asset-registry-clients"
)

var now = time.Now

// Configure replaces the signing secret, issuer and audience. Empty values
// leave the current setting untouched.
func Configure(secret, issuer, audience string) {
	mu.Lock()
	defer mu.Unlock()
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if issuer != "" {
		jwtIssuer = issuer
	}
	if audience != "" {
		jwtAudience = audience
	}
}

func settings() ([]byte, string, string) {
	mu.RLock()
	defer mu.RUnlock()
	return jwtSecret, jwtIssuer, jwtAudience
}

// Claims represents the JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken generates a JWT token for the given user
func GenerateToken(userID, username string) (string, error) {
	secret, issuer, audience := settings()
	issued := now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(issued.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*Claims, error) {
	secret, issuer, audience := settings()
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
