package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/platinummonkey/staffing/pkg/apperrors"
	"github.com/platinummonkey/staffing/pkg/observability"
	"github.com/platinummonkey/staffing/pkg/validation"
)

// Envelope is the body of every API response
type Envelope struct {
	Success bool                    `json:"success"`
	Message string                  `json:"message"`
	Data    interface{}             `json:"data,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 envelope with an optional payload
func WriteSuccess(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// WriteFailure writes a failed envelope with the given status code
func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// WriteValidationError writes a 400 envelope listing the rejected fields
func WriteValidationError(w http.ResponseWriter, message string, fields []validation.FieldError) {
	WriteJSON(w, http.StatusBadRequest, Envelope{Success: false, Message: message, Errors: fields})
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a forbidden error (403)
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusForbidden, message)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusNotFound, message)
}

// WriteTooManyRequests writes a rate limit error (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusTooManyRequests, message)
}

// WriteInternalError writes a generic 500 envelope. The cause is never sent
// to the client.
func WriteInternalError(w http.ResponseWriter) {
	WriteFailure(w, http.StatusInternalServerError, "internal server error")
}

// WriteAppError maps err through the error taxonomy and writes the matching
// envelope. Store failures are logged with the request logger.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		observability.FromContext(r.Context()).WithError(err).Error("unclassified error")
		WriteInternalError(w)
		return
	}

	switch appErr.Kind {
	case apperrors.KindStore:
		observability.FromContext(r.Context()).WithError(appErr).Error(appErr.Message)
		WriteInternalError(w)
	case apperrors.KindValidation:
		WriteValidationError(w, appErr.Message, appErr.Fields)
	default:
		WriteFailure(w, appErr.Kind.StatusCode(), appErr.Message)
	}
}
