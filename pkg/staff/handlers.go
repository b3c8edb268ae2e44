package staff

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/auth"
	"github.com/platinummonkey/staffing/pkg/httputil"
	"github.com/platinummonkey/staffing/pkg/middleware"
)

// Handlers provides HTTP handlers for staff, agencies and assignments
type Handlers struct {
	service *Service
}

// NewHandlers creates staff handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the staff routes on a router behind the access gate
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/addStaff", h.AddStaff).Methods("POST")
	router.HandleFunc("/addStaffWithAgence", h.AddStaffWithAgence).Methods("POST")
	router.HandleFunc("/updateStaff", h.UpdateStaff).Methods("PUT")
	router.HandleFunc("/deleteStaff", h.DeleteStaff).Methods("DELETE")
	router.HandleFunc("/staff/deleteStaffAndAssignments", h.DeleteStaffAndAssignments).Methods("DELETE")

	router.HandleFunc("/getAllStaff", h.GetAllStaff).Methods("GET")
	router.HandleFunc("/getAvailableStaff", h.GetAvailableStaff).Methods("GET")
	router.HandleFunc("/getParticipation", h.GetParticipation).Methods("GET")
	router.HandleFunc("/getStaffEvents/{id}", h.GetStaffEvents).Methods("GET")
	router.HandleFunc("/getEventStaff/{ID}", h.GetEventStaff).Methods("GET")
	router.HandleFunc("/getAvailabeEventStaff/{start_date}/{end_date}", h.GetAvailableEventStaff).Methods("GET")
	router.HandleFunc("/getStaffByEvent/{event_id}", h.GetStaffByEvent).Methods("GET")
	router.HandleFunc("/getStaffWithAgencyByEvent", h.GetStaffWithAgencyByEvent).Methods("POST")

	router.HandleFunc("/addStaffToEvent", h.AddStaffToEvent).Methods("POST")
	router.Handle("/removeStaffFromEvent/{ID_staff}/{ID_event}",
		middleware.RequireRole(auth.AssignmentManagers...)(http.HandlerFunc(h.RemoveStaffFromEvent))).Methods("DELETE")
	router.HandleFunc("/setStaffAvailable", h.SetStaffAvailable).Methods("PUT")

	router.HandleFunc("/getAllAgencies", h.GetAllAgencies).Methods("GET")
	router.HandleFunc("/getAgenceTableStructure", h.GetAgenceTableStructure).Methods("GET")
}

func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		httputil.WriteAppError(w, r, apperrors.Authentication("Missing token"))
	}
	return id, ok
}

// AddStaff creates a staff member
func (h *Handlers) AddStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req AddStaffRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	created, err := h.service.Add(r.Context(), caller, req)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Staff added successfully", created)
}

// AddStaffWithAgence creates a staff member with an optional event assignment
func (h *Handlers) AddStaffWithAgence(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req AddStaffWithAgenceRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	created, err := h.service.AddWithAgence(r.Context(), caller, req)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	message := "Staff added successfully"
	if created.Assignment != nil {
		message += " with event assignment"
	}
	httputil.WriteSuccess(w, message, created)
}

// UpdateStaff patches a staff member
func (h *Handlers) UpdateStaff(w http.ResponseWriter, r *http.Request) {
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
	httputil.WriteSuccess(w, "Staff updated successfully", updated)
}

// DeleteStaff removes a staff member
func (h *Handlers) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req IDRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	deleted, err := h.service.Delete(r.Context(), caller, req.ID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Staff deleted successfully", deleted)
}

// DeleteStaffAndAssignments removes a staff member with its assignments
func (h *Handlers) DeleteStaffAndAssignments(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req StaffIDRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	deleted, err := h.service.DeleteWithAssignments(r.Context(), caller, req.StaffID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Staff and their assignments deleted successfully", deleted)
}

// GetAllStaff lists the tenant staff
func (h *Handlers) GetAllStaff(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false, "Staff fetched successfully")
}

// GetAvailableStaff lists the available tenant staff
func (h *Handlers) GetAvailableStaff(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true, "Available staff fetched successfully")
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request, availableOnly bool, message string) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	listings, err := h.service.List(r.Context(), caller, availableOnly)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, message, listings)
}

// GetParticipation lists recent event participation
func (h *Handlers) GetParticipation(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.service.Participation(r.Context(), caller)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "participation fetched with success", result)
}

// GetStaffEvents lists the events of one staff member
func (h *Handlers) GetStaffEvents(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	staffID, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	events, err := h.service.EventsOf(r.Context(), caller, staffID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "staffs events fetched with success", events)
}

// GetEventStaff lists the staff of one event
func (h *Handlers) GetEventStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	eventID, err := httputil.PathID(r, "ID")
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	members, err := h.service.EventStaff(r.Context(), caller, eventID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "success", members)
}

// GetAvailableEventStaff lists the staff free over a date window
func (h *Handlers) GetAvailableEventStaff(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	listings, err := h.service.AvailableBetween(r.Context(), caller, vars["start_date"], vars["end_date"])
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "success", listings)
}

// GetStaffByEvent lists the staff of one event with their assignment ids
func (h *Handlers) GetStaffByEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	eventID, err := httputil.PathID(r, "event_id")
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	listings, err := h.service.ListByEvent(r.Context(), caller, eventID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Staff members fetched successfully", listings)
}

// GetStaffWithAgencyByEvent lists the agency staff of one event
func (h *Handlers) GetStaffWithAgencyByEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req EventRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	members, err := h.service.AgencyStaffByEvent(r.Context(), caller, req.EvenementID)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Staff with agency fetched successfully", members)
}

// AddStaffToEvent assigns a staff member to an event
func (h *Handlers) AddStaffToEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req AssignmentRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	result, err := h.service.Assign(r.Context(), caller, req)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Staff successfully assigned to event and marked as unavailable", result)
}

// RemoveStaffFromEvent releases a staff member from an event
func (h *Handlers) RemoveStaffFromEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	staffID, err := httputil.PathID(r, "ID_staff")
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	eventID, err := httputil.PathID(r, "ID_event")
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	result, err := h.service.RemoveFromEvent(r.Context(), caller, AssignmentRequest{StaffID: staffID, EvenementID: eventID})
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "success", result)
}

// SetStaffAvailable releases a staff member from an event
func (h *Handlers) SetStaffAvailable(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req AssignmentRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}

	result, err := h.service.SetAvailable(r.Context(), caller, req)
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Staff successfully removed from event and marked as available", result)
}

// GetAllAgencies lists the agencies
func (h *Handlers) GetAllAgencies(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.service.Agencies(r.Context())
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Agencies fetched successfully", agencies)
}

// GetAgenceTableStructure describes the agence table
func (h *Handlers) GetAgenceTableStructure(w http.ResponseWriter, r *http.Request) {
	columns, err := h.service.AgencyColumns(r.Context())
	if err != nil {
		httputil.WriteAppError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, "Agence table structure fetched successfully", columns)
}
