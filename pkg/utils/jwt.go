package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims are the claims carried by the backend's operator access
// tokens. The backend puts the operator email in "sub".
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// Email returns the operator identity from the subject claim
func (c *OperatorClaims) Email() string {
	return c.Subject
}

// JWTManager validates operator tokens issued by the backend. Both sides
// share the HS256 secret.
type JWTManager struct {
	secretKey []byte
	leeway    time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, leeway time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secret),
		leeway:    leeway,
	}
}

// GenerateAccessToken signs a token the same way the backend does.
// Used by tests and local tooling.
func (m *JWTManager) GenerateAccessToken(email string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ValidateAccessToken validates an access token and returns the claims
func (m *JWTManager) ValidateAccessToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	}, jwt.WithLeeway(m.leeway), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}
