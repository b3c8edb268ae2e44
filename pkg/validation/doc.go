// Package validation checks the shape of incoming request bodies.
//
// # Overview
//
// Request types carry `validate` tags checked by go-playground/validator.
// Failures are translated into FieldError values with stable rule names, so
// the envelope's "errors" member does not depend on the library's wording.
// A request with errors never reaches a store; the handler answers 400.
//
// Two tags are registered on top of the built-in set:
//
//	notblank  rejects empty and whitespace-only strings
//	date      accepts RFC 3339, "2006-01-02T15:04:05" and "2006-01-02"
//
// # Usage
//
//	type SignUpRequest struct {
//	    Email string `json:"email" validate:"required,email"`
//	    Role  string `json:"role" validate:"required,oneof=admin user"`
//	}
//
//	if v := validation.Struct(req); !v.Valid() {
//	    return apperrors.Validation("invalid request", v.Errors)
//	}
//
// Fields whose rules depend on other fields or on pointer presence are
// checked one at a time with the Result helpers, which run the same
// validator:
//
//	v := validation.New()
//	if req.Email != nil {
//	    v.Email("email", *req.Email)
//	}
package validation
