// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Error Contract
//
// Every failure written by this service has the same shape:
//
//	{"success": false, "error": {"code": "AUTH_ZONE_MISMATCH", "message": "...", "details": {...}}}
//
// Handlers and middleware build an *APIError with one of the constructors
// (Unauthorized, Forbidden, Validation, Internal) and hand it to WriteAPIError.
//
// # Success Envelope
//
//	httputil.WriteSuccess(w, data)          // {"success": true, "data": ...}
//	httputil.WriteSuccessMessage(w, msg, d) // {"success": true, "message": ..., "data": ...}
//
// # Request Parsing
//
//	id, ok := httputil.ParsePathInt64OrError(w, r, "userId")
//	page, err := httputil.ParseQueryInt(r, "page", 1)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)
package httputil
