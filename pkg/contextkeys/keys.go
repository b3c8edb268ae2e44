// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
//
// USAGE PATTERN:
//
//	import "github.com/platinummonkey/staffing/pkg/contextkeys"
//	ctx = contextkeys.WithIdentity(ctx, identity)
//	identity, ok := auth.FromContext(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains auth.Identity
	// Set by: middleware.AccessGate (pkg/middleware/auth.go)
	// Required by: All protected API endpoints, role gate
	// Type: auth.Identity
	IdentityKey Key = "identity"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, audit trail
	// Type: string
	RequestIDKey Key = "request_id"

	// CallerKey contains the caller's account ID and role
	// Set by: middleware.AccessGate after the session token is verified
	// Used by: Logger
	// Type: Caller
	CallerKey Key = "caller"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"

	// AuditLoggerKey contains audit.Logger interface
	// Set by: api.Server
	// Used by: Services that record audit events
	// Type: audit.Logger
	AuditLoggerKey Key = "audit_logger"
)

// WithIdentity adds the caller identity to the context
func WithIdentity(ctx context.Context, identity interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// Caller is the logging view of an authenticated request. It mirrors
// auth.Identity without importing it.
type Caller struct {
	AccountID int64
	Role      string
}

// WithCaller adds the caller's account ID and role to the context
func WithCaller(ctx context.Context, accountID int64, role string) context.Context {
	return context.WithValue(ctx, CallerKey, Caller{AccountID: accountID, Role: role})
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// WithAuditLogger adds audit logger to the context
func WithAuditLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, AuditLoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetCaller retrieves the caller set by WithCaller
func GetCaller(ctx context.Context) (int64, string, bool) {
	caller, ok := ctx.Value(CallerKey).(Caller)
	return caller.AccountID, caller.Role, ok
}
