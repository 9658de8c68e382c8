package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/money-coach/internal/infrastructure/auth"
)

const issuer = "https://identity.example.com"

func newValidator(t *testing.T, audience string) (*auth.JWTValidator, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	kf := func(*jwt.Token) (any, error) { return &key.PublicKey, nil }
	return auth.NewStaticJWTValidator(kf, issuer, audience, 5*time.Second, zerolog.Nop()), key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user_2abc",
		"iss":   issuer,
		"email": "ada@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestValidate_AcceptsValidToken(t *testing.T) {
	v, key := newValidator(t, "")

	principal, err := v.Validate(context.Background(), sign(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", principal.Subject)
	assert.Equal(t, issuer, principal.Issuer)
	assert.Equal(t, "ada@example.com", principal.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), principal.ExpiresAt, 5*time.Second)
	assert.True(t, v.Ready())
}

func TestValidate_Rejects(t *testing.T) {
	v, key := newValidator(t, "money-coach")
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	withAudience := func(mutate func(jwt.MapClaims)) jwt.MapClaims {
		claims := validClaims()
		claims["aud"] = "money-coach"
		mutate(claims)
		return claims
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(t, key, withAudience(func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() }))},
		{"no expiry", sign(t, key, withAudience(func(c jwt.MapClaims) { delete(c, "exp") }))},
		{"wrong issuer", sign(t, key, withAudience(func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" }))},
		{"wrong audience", sign(t, key, withAudience(func(c jwt.MapClaims) { c["aud"] = "someone-else" }))},
		{"missing subject", sign(t, key, withAudience(func(c jwt.MapClaims) { delete(c, "sub") }))},
		{"foreign key", sign(t, other, withAudience(func(jwt.MapClaims) {}))},
		{"garbage", "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), tt.token)
			assert.Error(t, err)
		})
	}
}

func TestValidate_RejectsHMAC(t *testing.T) {
	v, _ := newValidator(t, "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), token)
	assert.Error(t, err)
}

func TestValidate_WithoutKeys(t *testing.T) {
	v := auth.NewStaticJWTValidator(nil, issuer, "", 0, zerolog.Nop())
	_, err := v.Validate(context.Background(), "x")
	assert.Error(t, err)
	assert.False(t, v.Ready())
}
