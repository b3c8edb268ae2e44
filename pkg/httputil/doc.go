// Package httputil provides the response envelope, request parsing and the
// HTTP middleware shared by every handler.
//
// # Responses
//
// Every response body is an Envelope:
//
//	{"success": true, "message": "Staff added successfully", "data": {...}}
//
// Handlers report failures through WriteAppError, which maps an
// apperrors.Error to its status code. Validation errors carry the rejected
// fields. Store errors and unclassified errors are logged and answered with
// a generic 500 so no database detail reaches the client.
//
//	staff, err := h.service.Add(r.Context(), caller, req)
//	if err != nil {
//		httputil.WriteAppError(w, r, err)
//		return
//	}
//	httputil.WriteSuccess(w, "Staff added successfully", staff)
//
// # Requests
//
// DecodeBody parses JSON bodies and PathID parses positive path ids; both
// fail with validation errors ready for WriteAppError.
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.CORSMiddleware(origins),
//	)(router)
package httputil
