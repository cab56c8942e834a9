package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/qbsync/internal/auth"
	"github.com/gosuda/qbsync/internal/server/middleware"
)

// contextHandler captures context values set by middleware so tests can
// assert that the correct subject and role were injected.
type contextHandler struct {
	subject string
	role    string
	called  bool
}

func (h *contextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.subject, _ = middleware.SubjectFromContext(r.Context())
	h.role, _ = middleware.RoleFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

// ===========================================================================
// 1. Context helpers
// ===========================================================================

func TestSubjectFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeySubject, "ops")

		got, ok := middleware.SubjectFromContext(ctx)

		require.True(t, ok)
		assert.Equal(t, "ops", got)
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		got, ok := middleware.SubjectFromContext(context.Background())

		assert.False(t, ok)
		assert.Empty(t, got)
	})
}

func TestRoleFromContext(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyUserRole, "admin")

		got, ok := middleware.RoleFromContext(ctx)

		require.True(t, ok)
		assert.Equal(t, "admin", got)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()

		ctx := context.WithValue(context.Background(), middleware.ContextKeyUserRole, 123)

		got, ok := middleware.RoleFromContext(ctx)

		assert.False(t, ok)
		assert.Empty(t, got)
	})
}

// ===========================================================================
// 2. RateLimitByIP middleware
// ===========================================================================

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/qbwc", http.NoBody)
	req.RemoteAddr = ip
	return req
}

func TestRateLimitByIP_BurstExceeded_Returns429(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// Very low rate (effectively zero refill during the test) with burst of 2.
	handler := middleware.RateLimitByIP(ctx, 0.001, 2)(okHandler)

	for i := range 2 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestFrom("10.0.0.1"))
		require.Equalf(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("10.0.0.1"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimitByIP_IndependentPerIP(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	handler := middleware.RateLimitByIP(ctx, 0.001, 1)(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("10.0.0.1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("10.0.0.2"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ===========================================================================
// 3. Auth middleware
// ===========================================================================

const testJWTSecret = "test-jwt-secret-for-middleware-tests"

func TestAuth_ValidToken_PopulatesContext(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueToken(testJWTSecret, "ops", auth.RoleViewer, 5*time.Minute)
	require.NoError(t, err)

	h := &contextHandler{}
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware.Auth(testJWTSecret)(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.called)
	assert.Equal(t, "ops", h.subject)
	assert.Equal(t, auth.RoleViewer, h.role)
}

func TestAuth_Rejects(t *testing.T) {
	t.Parallel()

	expired, err := auth.IssueToken(testJWTSecret, "ops", auth.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	otherSecret, err := auth.IssueToken("a-different-secret-of-enough-length", "ops", auth.RoleAdmin, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no credentials", header: ""},
		{name: "invalid token", header: "Bearer not-a-token"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong secret", header: "Bearer " + otherSecret},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &contextHandler{}
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			middleware.Auth(testJWTSecret)(h).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, h.called)
		})
	}
}

func TestAuth_BearerIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueToken(testJWTSecret, "ops", auth.RoleAdmin, time.Minute)
	require.NoError(t, err)

	for _, scheme := range []string{"Bearer ", "bearer ", "BEARER "} {
		h := &contextHandler{}
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set("Authorization", scheme+token)
		rec := httptest.NewRecorder()

		middleware.Auth(testJWTSecret)(h).ServeHTTP(rec, req)

		assert.Equalf(t, http.StatusOK, rec.Code, "scheme %q", scheme)
	}
}
