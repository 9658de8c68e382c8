package middlewares_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/money-coach/internal/infrastructure/auth"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

const issuer = "https://identity.example.com"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T) (*gin.Engine, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	validator := auth.NewStaticJWTValidator(func(*jwt.Token) (any, error) { return &key.PublicKey, nil }, issuer, "", 0, zerolog.Nop())

	router := gin.New()
	router.Use(middlewares.RequestID())
	router.GET("/me", middlewares.AuthMiddleware(validator, zerolog.Nop()), func(c *gin.Context) {
		principal, ok := middlewares.PrincipalFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sub": principal.Subject, "request_id": middlewares.RequestIDFromContext(c)})
	})
	return router, key
}

func token(t *testing.T, key *rsa.PrivateKey, exp time.Time) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user_2abc",
		"iss": issuer,
		"exp": exp.Unix(),
	}).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware_AcceptsBearerToken(t *testing.T) {
	router, key := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+token(t, key, time.Now().Add(time.Hour)))
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user_2abc", body["sub"])
	assert.Equal(t, "req-123", body["request_id"])
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	router, key := newRouter(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer   "},
		{"expired token", "Bearer " + token(t, key, time.Now().Add(-time.Hour))},
		{"garbage token", "Bearer abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body platformerrors.HTTPErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, "unauthorized_error", body.Error.Type)
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		})
	}
}

func TestRequestID_ReplacesUnusableIDs(t *testing.T) {
	router := gin.New()
	router.Use(middlewares.RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, middlewares.RequestIDFromContext(c)) })

	for _, incoming := range []string{"", "has space", string(make([]byte, 200))} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if incoming != "" {
			req.Header.Set("X-Request-Id", incoming)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assigned := rec.Header().Get("X-Request-Id")
		assert.Len(t, assigned, 36)
		assert.Equal(t, assigned, rec.Body.String())
	}
}
