package teams

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/httputil"
)

// Handlers provides HTTP handlers for teams
type Handlers struct {
	service *Service
}

// NewHandlers creates team handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the team routes on a router behind the access gate
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/addTeam", h.AddTeam).Methods("POST")
	router.HandleFunc("/updateTeam", h.UpdateTeam).Methods("PUT")
	router.HandleFunc("/deleteTeam", h.DeleteTeam).Methods("DELETE")
	router.HandleFunc("/getAllTeams", h.GetAllTeams).Methods("GET")
	router.HandleFunc("/getAllStaffForTeams", h.GetAllStaffForTeams).Methods("GET")
	router.HandleFunc("/addStaffToTeam", h.AddStaffToTeam).Methods("PUT")
}

func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		httputil.WriteAppError(w, r, apperrors.Authentication("Missing token"))
	}
	return id, ok
}

// AddTeam creates a team
func (h *Handlers) AddTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req AddRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	team, err := h.service.Add(r.Context(), caller, req)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Team added successfully", team)
}

// UpdateTeam renames a team
func (h *Handlers) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	team, err := h.service.Update(r.Context(), caller, req)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "team updated with success", team)
}

// DeleteTeam removes teams
func (h *Handlers) DeleteTeam(w http.ResponseWriter, r *http.Request) {
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
	httputil.WriteSuccess(w, "teams deleted with success", nil)
}

// GetAllTeams lists the tenant teams
func (h *Handlers) GetAllTeams(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	teams, err := h.service.List(r.Context(), caller)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "teams fetched with success", teams)
}

// GetAllStaffForTeams lists the tenant staff with their team
func (h *Handlers) GetAllStaffForTeams(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	members, err := h.service.Members(r.Context(), caller)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "staff fetched with success", members)
}

// AddStaffToTeam moves staff into or out of a team
func (h *Handlers) AddStaffToTeam(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req MembershipRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	if _, err := h.service.SetTeam(r.Context(), caller, req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "staff added with success", nil)
}
