package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/staffing/pkg/accounts"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/config"
	"github.com/platinummonkey/staffing/pkg/httputil"
	"github.com/platinummonkey/staffing/pkg/middleware"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/staff"
	"github.com/platinummonkey/staffing/pkg/teams"
)

var signingKey = []byte("test-signing-key")

type testEnv struct {
	server   *Server
	mock     sqlmock.Sqlmock
	issuer   *auth.SessionIssuer
	registry *prometheus.Registry
	metrics  *observability.Metrics
}

func newTestEnv(t *testing.T, limiter middleware.Limiter) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	issuer, err := auth.NewSessionIssuer(signingKey, time.Hour)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	server := NewServer(newHandlers(db, issuer, metrics), Options{
		SigningKey:   signingKey,
		CORSOrigins:  []string{"http://localhost:3000"},
		MaxBodyBytes: 1 << 20,
		Metrics:      metrics,
		LoginLimiter: limiter,
		LoginLimit: &middleware.RateLimitConfig{
			RequestsPerWindow: 1,
			WindowDuration:    time.Minute,
			BurstSize:         1,
		},
	})

	return &testEnv{server: server, mock: mock, issuer: issuer, registry: registry, metrics: metrics}
}

func newHandlers(db *sql.DB, issuer *auth.SessionIssuer, metrics *observability.Metrics) Handlers {
	staffStore := staff.NewPostgresStore(db, nil, metrics)
	return Handlers{
		Accounts: accounts.NewHandlers(accounts.NewService(accounts.NewPostgresStore(db, nil, metrics), issuer, metrics), false),
		Staff:    staff.NewHandlers(staff.NewService(staffStore, staff.NewAgencyCache(staffStore, 16, time.Minute), metrics)),
		Teams:    teams.NewHandlers(teams.NewService(teams.NewPostgresStore(db, nil, metrics))),
	}
}

func (e *testEnv) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	token, _, err := e.issuer.Issue(id)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestServer_Healthcheck(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest("GET", "/healthcheck", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, float64(1),
		testutil.ToFloat64(env.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/healthcheck", "200")))
}

func TestServer_AccessGate(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("missing token", func(t *testing.T) {
		w := env.do(httptest.NewRequest("GET", "/api/getAllTeams", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
		resp := envelope(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "Missing token", resp.Message)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/getAllTeams", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := env.do(req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid token", envelope(t, w).Message)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		other, err := auth.NewSessionIssuer([]byte("other-key"), time.Hour)
		require.NoError(t, err)
		token, _, err := other.Issue(auth.Identity{AccountID: 3, Role: auth.RoleUser})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/getAllTeams", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)
	})
}

func TestServer_ProtectedRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.token(t, auth.Identity{AccountID: 3, Role: auth.RoleUser})

	t.Run("bearer header", func(t *testing.T) {
		env.mock.ExpectQuery("FROM team").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"ID", "nom", "entreprise_id"}).AddRow(int64(1), "Red", int64(7)))

		req := httptest.NewRequest("GET", "/api/getAllTeams", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := env.do(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t,
			`{"success":true,"message":"teams fetched with success","data":[{"ID":1,"nom":"Red","entreprise_id":7}]}`,
			w.Body.String())
	})

	t.Run("session cookie", func(t *testing.T) {
		env.mock.ExpectQuery("FROM team").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"ID", "nom", "entreprise_id"}))

		req := httptest.NewRequest("GET", "/api/getAllTeams", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
		w := env.do(req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"teams fetched with success","data":[]}`, w.Body.String())
	})

	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestServer_LoginRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{
		RequestsPerWindow: 1,
		WindowDuration:    time.Minute,
		BurstSize:         1,
	})
	env := newTestEnv(t, limiter)

	login := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/logIn", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.10:5000"
		return env.do(req)
	}

	assert.Equal(t, http.StatusBadRequest, login().Code)

	w := login()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.False(t, envelope(t, w).Success)
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.RateLimitedTotal.WithLabelValues(LoginRoute)))
}

func TestServer_LoginRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	newServer := func(proxies httputil.TrustedProxies) *Server {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		issuer, err := auth.NewSessionIssuer(signingKey, time.Hour)
		require.NoError(t, err)

		limit := &middleware.RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Hour, BurstSize: 1}
		return NewServer(newHandlers(db, issuer, nil), Options{
			SigningKey:     signingKey,
			TrustedProxies: proxies,
			LoginLimiter:   middleware.NewRateLimiter(limit),
			LoginLimit:     limit,
		})
	}
	login := func(server *Server, remote, forwarded string) int {
		req := httptest.NewRequest("POST", LoginRoute, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("untrusted peer", func(t *testing.T) {
		server := newServer(nil)
		allowed := 0
		for i := 0; i < 50; i++ {
			if login(server, "203.0.113.7:5000", fmt.Sprintf("198.51.100.%d", i)) != http.StatusTooManyRequests {
				allowed++
			}
		}
		assert.Equal(t, 1, allowed)
	})

	t.Run("trusted proxy keys on forwarded client", func(t *testing.T) {
		proxies, err := httputil.ParseTrustedProxies([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		server := newServer(proxies)

		assert.Equal(t, http.StatusBadRequest, login(server, "10.0.0.2:5000", "198.51.100.1"))
		assert.Equal(t, http.StatusTooManyRequests, login(server, "10.0.0.3:5000", "198.51.100.1"))
		assert.Equal(t, http.StatusBadRequest, login(server, "10.0.0.2:5000", "198.51.100.2"))
	})
}

func TestServer_LoginIsPublic(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest("POST", "/api/logIn", strings.NewReader(`{"email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_CORS(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest("OPTIONS", "/api/getAllTeams", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := env.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("OPTIONS", "/api/getAllTeams", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = env.do(req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RejectsNonJSONBodies(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest("POST", "/api/logIn", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := env.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Content-Type must be application/json", envelope(t, w).Message)
}

func TestServer_UnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest("GET", "/api/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, envelope(t, w).Success)
}

func TestServer_HTTPServer(t *testing.T) {
	env := newTestEnv(t, nil)

	srv := env.server.HTTPServer(configForTest())
	assert.Equal(t, "127.0.0.1:8080", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Same(t, env.server, srv.Handler)
}

func configForTest() config.ServerConfig {
	return config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         "8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  time.Minute,
	}
}

func TestNewHealthMux(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	registry := prometheus.NewRegistry()
	observability.NewMetrics(registry)
	mux := NewHealthMux(observability.NewHealthChecker(db, nil, "test"), registry)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "staffing_db_connections_open")
}
