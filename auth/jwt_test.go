package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	a, err := New(Options{
		Logger:        zap.NewNop(),
		JWTSigningKey: "0123456789abcdef",
	})
	require.NoError(t, err)
	return a
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{JWTSigningKey: "0123456789abcdef"})
	assert.Error(t, err)

	_, err = New(Options{Logger: zap.NewNop(), JWTSigningKey: "short"})
	assert.Error(t, err)

	a, err := New(Options{Logger: zap.NewNop(), JWTSigningKey: "0123456789abcdef"})
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, a.Environment)
}

func TestMiddleware(t *testing.T) {
	a := newTestAuth(t)

	var seen *Claims
	handler := a.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		seen = claims
		w.WriteHeader(http.StatusNoContent)
	}))

	valid, err := a.CreateTokenFromClaims(Claims{
		StandardClaims: jwt.StandardClaims{Subject: "user_1"},
		Email:          "ada@example.com",
		Name:           "Ada",
	}, time.Minute)
	require.NoError(t, err)

	expired, err := a.CreateTokenFromClaims(Claims{
		StandardClaims: jwt.StandardClaims{Subject: "user_1"},
	}, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, "user_1", seen.Subject)
	assert.Equal(t, "ada@example.com", seen.Email)
	assert.Equal(t, "Ada", seen.Name)
}
