package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/contextkeys"
	"github.com/platinummonkey/staffing/pkg/httputil"
)

var testKey = []byte("middleware-test-key")

func issue(t *testing.T, key []byte, id auth.Identity) string {
	t.Helper()
	issuer, err := auth.NewSessionIssuer(key, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionIssuer: %v", err)
	}
	token, _, err := issuer.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var env httputil.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
	}
	return env
}

func TestAccessGate(t *testing.T) {
	identity := auth.Identity{AccountID: 42, Role: auth.RoleAdmin}
	valid := issue(t, testKey, identity)

	var seen auth.Identity
	var seenAccount int64
	var seenRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.FromContext(r.Context())
		seenAccount, seenRole, _ = contextkeys.GetCaller(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AccessGate(testKey)(next)

	t.Run("bearer header", func(t *testing.T) {
		seen = auth.Identity{}
		req := httptest.NewRequest("GET", "/api/getAllStaff", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if seen != identity {
			t.Errorf("expected identity %+v, got %+v", identity, seen)
		}
		if seenAccount != 42 || seenRole != "admin" {
			t.Errorf("expected caller 42/admin in context, got %d/%q", seenAccount, seenRole)
		}
	})

	t.Run("cookie", func(t *testing.T) {
		seen = auth.Identity{}
		req := httptest.NewRequest("GET", "/api/getAllStaff", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: valid})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if seen != identity {
			t.Errorf("expected identity %+v, got %+v", identity, seen)
		}
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		other := issue(t, testKey, auth.Identity{AccountID: 7, Role: auth.RoleUser})
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: valid})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen.AccountID != 7 {
			t.Errorf("expected header identity, got %+v", seen)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		env := decodeEnvelope(t, w)
		if env.Success || env.Message != "Missing token" {
			t.Errorf("unexpected envelope %+v", env)
		}
	})

	t.Run("non bearer header without cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if env := decodeEnvelope(t, w); env.Message != "Missing token" {
			t.Errorf("expected Missing token, got %q", env.Message)
		}
	})

	t.Run("token signed with another key", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, []byte("other-key"), identity))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if env := decodeEnvelope(t, w); env.Message != "Invalid token" {
			t.Errorf("expected Invalid token, got %q", env.Message)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not.a.jwt"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin)(next)

	tests := []struct {
		name     string
		identity *auth.Identity
		want     int
	}{
		{"admin allowed", &auth.Identity{AccountID: 1, Role: auth.RoleAdmin}, http.StatusNoContent},
		{"super_admin allowed", &auth.Identity{AccountID: 1, Role: auth.RoleSuperAdmin}, http.StatusNoContent},
		{"user denied", &auth.Identity{AccountID: 1, Role: auth.RoleUser}, http.StatusForbidden},
		{"no identity", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.identity != nil {
				req = req.WithContext(auth.WithIdentity(req.Context(), *tt.identity))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusForbidden {
				if env := decodeEnvelope(t, w); env.Message != "missing privilege" {
					t.Errorf("expected missing privilege, got %q", env.Message)
				}
			}
		})
	}
}
