package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", 0)

	token, err := m.GenerateAccessToken("asha@example.com", time.Minute)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", claims.Email())
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("secret", 0)

	expired, err := m.GenerateAccessToken("asha@example.com", -time.Minute)
	require.NoError(t, err)

	foreign, err := NewJWTManager("other", 0).GenerateAccessToken("asha@example.com", time.Minute)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "asha@example.com",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "asha@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"alg none":     none,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.ValidateAccessToken(token)
			assert.Error(t, err)
		})
	}
}

func TestJWTManager_Leeway(t *testing.T) {
	token, err := NewJWTManager("secret", 0).GenerateAccessToken("asha@example.com", -5*time.Second)
	require.NoError(t, err)

	_, err = NewJWTManager("secret", time.Minute).ValidateAccessToken(token)
	assert.NoError(t, err)
}
