package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the payload of customer tokens.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AdminClaims is the payload of an admin session token. The session id is
// carried as the registered jti claim.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateTokenPair issues an access and a refresh token for a customer.
func GenerateTokenPair(userID uint, email, role, secret string, accessExpiry, refreshExpiry time.Duration) (*TokenPair, error) {
	access, err := signClaims(newClaims(userID, email, role, TokenTypeAccess, accessExpiry), secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := signClaims(newClaims(userID, email, role, TokenTypeRefresh, refreshExpiry), secret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func newClaims(userID uint, email, role, tokenType string, expiry time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
}

// ValidateToken parses a customer token signed with secret.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	if err := parseClaims(tokenString, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateAdminToken signs an admin session token bound to sessionID.
func GenerateAdminToken(sessionID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return signClaims(claims, secret)
}

// ValidateAdminToken verifies signature, expiry and role of an admin token.
func ValidateAdminToken(tokenString, secret string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	if err := parseClaims(tokenString, secret, claims); err != nil {
		return nil, err
	}
	if claims.Role != "admin" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func signClaims(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseClaims(tokenString, secret string, claims jwt.Claims) error {
	if tokenString == "" {
		return ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
