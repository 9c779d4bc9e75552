package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carry the logged-in employee's identity. The engine treats a
// request without valid claims as having no caller.
type Claims struct {
	EmployeeID  string `json:"employee_id"`
	DisplayName string `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the HS256 session tokens that stand
// in for the identity provider.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

func (m *TokenManager) Issue(employeeID, displayName string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		EmployeeID:  employeeID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   employeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.EmployeeID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
