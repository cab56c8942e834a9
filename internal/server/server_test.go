package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/qbsync/internal/auth"
	"github.com/gosuda/qbsync/internal/config"
	"github.com/gosuda/qbsync/internal/manifest"
	"github.com/gosuda/qbsync/internal/qbwc"
	"github.com/gosuda/qbsync/internal/qbxml"
	"github.com/gosuda/qbsync/internal/server"
	"github.com/gosuda/qbsync/internal/session"
)

var _ server.Sessions = (*session.Registry)(nil)

const testSecret = "server-test-secret-at-least-32-chars"

func testConfig(secret string) *config.Config {
	return &config.Config{
		Connector: config.ConnectorConfig{MaxBodyBytes: 1 << 20},
		JWT:       config.JWTConfig{Secret: secret, TTL: time.Hour},
		Server: config.ServerConfig{
			Addr:           "127.0.0.1:0",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			CORSOrigins:    []string{"https://ops.example.com"},
			RateLimitRPS:   100,
			RateLimitBurst: 100,
		},
	}
}

func newTestServer(t *testing.T, secret string) (*httptest.Server, *session.Registry) {
	t.Helper()

	authenticator, err := auth.NewStaticAuthenticator("qbuser", "qbpass")
	require.NoError(t, err)
	registry := session.NewRegistry(authenticator, manifest.NewStatic(manifest.Sample()))
	dispatcher := qbwc.NewDispatcher(registry, qbxml.NewRenderer(), nil, qbwc.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := server.New(ctx, testConfig(secret), server.Deps{
		Dispatcher: dispatcher,
		Sessions:   registry,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, registry
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

const serverVersionCall = `<?xml version="1.0"?><soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><serverVersion xmlns="http://developer.intuit.com/"/></soap:Body></soap:Envelope>`

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, "")
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestServer_ConnectorEndpoint(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, "")

	for _, path := range []string{"/qbwc", "/"} {
		resp := do(t, http.MethodPost, ts.URL+path, "", serverVersionCall)
		assert.Equalf(t, http.StatusOK, resp.StatusCode, "path %s", path)
		assert.Equal(t, "text/xml; charset=utf-8", resp.Header.Get("Content-Type"))
	}

	resp := do(t, http.MethodGet, ts.URL+"/qbwc", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_StatusAPIDisabledWithoutSecret(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t, "")
	resp := do(t, http.MethodGet, ts.URL+"/api/v1/sessions", "", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_StatusAPI(t *testing.T) {
	t.Parallel()

	ts, registry := newTestServer(t, testSecret)
	sess, err := registry.Authenticate(context.Background(), "qbuser", "qbpass")
	require.NoError(t, err)

	viewer, err := auth.IssueToken(testSecret, "ops", auth.RoleViewer, time.Minute)
	require.NoError(t, err)
	admin, err := auth.IssueToken(testSecret, "ops", auth.RoleAdmin, time.Minute)
	require.NoError(t, err)

	t.Run("requires a token", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/api/v1/sessions", "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("lists sessions", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/api/v1/sessions", viewer, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body []session.Snapshot
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, sess.Ticket(), body[0].Ticket)
		assert.Equal(t, 6, body[0].TotalJobs)
	})

	t.Run("logs answer 501 without a database", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/api/v1/sessions/"+sess.Ticket()+"/logs", viewer, "")
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	})

	t.Run("live stream answers 501 without redis", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/ws/sessions/"+sess.Ticket(), viewer, "")
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	})

	t.Run("viewer cannot close", func(t *testing.T) {
		resp := do(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+sess.Ticket(), viewer, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("admin closes", func(t *testing.T) {
		resp := do(t, http.MethodDelete, ts.URL+"/api/v1/sessions/"+sess.Ticket(), admin, "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Zero(t, registry.Len())
	})
}
