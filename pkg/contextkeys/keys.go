// Package contextkeys provides centralized context key definitions
//
// All context keys used across the service are defined here so that key usage
// is discoverable and typos surface at compile time.
//
// USAGE PATTERN:
//
//	import "github.com/cleancare/ccadmin/pkg/contextkeys"
//	ctx = contextkeys.WithIdentity(ctx, identity)
//	identity, _ := ctx.Value(contextkeys.IdentityKey).(*auth.Identity)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *auth.Identity
	// Set by: auth.Authenticator (pkg/auth/middleware.go)
	// Required by: every /api/admin endpoint, scope middleware
	// Type: *auth.Identity
	IdentityKey Key = "identity"

	// ScopeKey contains *scope.Resolved
	// Set by: scope.Resolver on first use within a request
	// Used by: later scope middleware in the same chain, handlers building query filters
	// Type: *scope.Resolved
	ScopeKey Key = "resolved_scope"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, activity log
	// Type: string
	RequestIDKey Key = "request_id"

	// UserIDKey contains the authenticated user id
	// Set by: auth.Authenticator
	// Used by: Logger
	// Type: int64
	UserIDKey Key = "user_id"

	// LoggerKey contains *logrus.Entry
	// Set by: httputil.LoggingMiddleware
	// Used by: Handlers that need structured logging with request context
	// Type: *logrus.Entry
	LoggerKey Key = "logger"
)

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, identity interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// WithScope adds the resolved request scope to the context
func WithScope(ctx context.Context, resolved interface{}) context.Context {
	return context.WithValue(ctx, ScopeKey, resolved)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
