package middleware

import (
	"net/http"
	"strings"

	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/contextkeys"
	"github.com/platinummonkey/staffing/pkg/httputil"
)

// SessionCookie is the cookie carrying the session token
const SessionCookie = "token"

// AccessGate verifies the session token on every request it wraps. The
// token is read from an "Authorization: Bearer" header first, then from the
// session cookie.
func AccessGate(key []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				httputil.WriteUnauthorized(w, "Missing token")
				return
			}

			identity, err := auth.Verify(token, key)
			if err != nil {
				httputil.WriteUnauthorized(w, "Invalid token")
				return
			}

			ctx := auth.WithIdentity(r.Context(), identity)
			ctx = contextkeys.WithCaller(ctx, identity.AccountID, string(identity.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// RequireRole lets through only callers holding one of roles. It must run
// behind AccessGate.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.FromContext(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w, "Missing token")
				return
			}

			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.WriteForbidden(w, auth.ErrMissingPrivilege.Error())
		})
	}
}
