package accounts

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/httputil"
	"github.com/platinummonkey/staffing/pkg/middleware"
)

// Handlers provides HTTP handlers for account operations
type Handlers struct {
	service      *Service
	cookieSecure bool
}

// NewHandlers creates account handlers. cookieSecure sets the Secure flag
// of the session cookie.
func NewHandlers(service *Service, cookieSecure bool) *Handlers {
	return &Handlers{service: service, cookieSecure: cookieSecure}
}

// RegisterRoutes registers the public login route on public and every
// other account route on protected, which must sit behind the access gate
func (h *Handlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/logIn", h.LogIn).Methods("POST")

	protected.HandleFunc("/signUp", h.SignUp).Methods("POST")
	protected.HandleFunc("/logOut", h.LogOut).Methods("POST")
	protected.HandleFunc("/updateAccount", h.UpdateAccount).Methods("PUT")
	protected.HandleFunc("/deleteAccount", h.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/getAcounts", h.GetAccounts).Methods("GET")
}

func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		httputil.WriteAppError(w, r, apperrors.Authentication("Missing token"))
	}
	return id, ok
}

// SignUp creates an account
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req SignUpRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	if err := h.service.SignUp(r.Context(), caller, req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "account added with success", nil)
}

// LogIn opens a session and sets the session cookie
func (h *Handlers) LogIn(w http.ResponseWriter, r *http.Request) {
	var req LogInRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	session, err := h.service.LogIn(r.Context(), req, httputil.ClientIP(r))
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteSuccess(w, "loged in with success", session)
}

// LogOut clears the session
func (h *Handlers) LogOut(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.service.LogOut(r.Context(), caller); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteSuccess(w, "logged out with success", nil)
}

// UpdateAccount patches one account
func (h *Handlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), caller, req)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	if !updated {
		httputil.WriteSuccess(w, "no account was updated", nil)
		return
	}
	httputil.WriteSuccess(w, "account updated with success", nil)
}

// DeleteAccount removes accounts
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req DeleteRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	if _, err := h.service.Delete(r.Context(), caller, req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "accounts deleted with success", nil)
}

// GetAccounts lists the accounts the caller may see
func (h *Handlers) GetAccounts(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	accounts, err := h.service.List(r.Context(), caller)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "fetched accounts with success", accounts)
}
