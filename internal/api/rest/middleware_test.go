package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-signing-secret"

func signedToken(t *testing.T, subject string, secret string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	var seenUser uuid.UUID
	var seenOK bool

	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, seenOK = AuthenticatedUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), AuthMiddleware(testSecret, zap.NewNop()))

	do := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token reaches the handler", func(t *testing.T) {
		rec := do("Bearer " + signedToken(t, userID.String(), testSecret, time.Hour))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, seenOK)
		assert.Equal(t, userID, seenUser)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := do("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := do("Bearer " + signedToken(t, userID.String(), "other-secret", time.Hour))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		rec := do("Bearer " + signedToken(t, userID.String(), testSecret, -time.Minute))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-uuid subject", func(t *testing.T) {
		rec := do("Bearer " + signedToken(t, "service-account", testSecret, time.Hour))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), RateLimitMiddleware(1, 2))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("203.0.113.9").Code)
	assert.Equal(t, http.StatusNoContent, do("203.0.113.9").Code)

	blocked := do("203.0.113.9")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, blocked).Code)

	t.Run("budget is per client", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, do("198.51.100.20").Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), RequestIDMiddleware())

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
	})

	t.Run("upstream id honored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "upstream-7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "upstream-7", rec.Header().Get("X-Request-ID"))
	})
}

func TestClientIP(t *testing.T) {
	build := func(remote, realIP, forwarded string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if realIP != "" {
			req.Header.Set("X-Real-IP", realIP)
		}
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		return req
	}

	assert.Equal(t, "192.0.2.1", clientIP(build("192.0.2.1:4444", "", "")))
	assert.Equal(t, "203.0.113.5", clientIP(build("192.0.2.1:4444", "203.0.113.5", "")))
	assert.Equal(t, "203.0.113.5", clientIP(build("192.0.2.1:4444", "", "203.0.113.5, 10.0.0.1")))
}
