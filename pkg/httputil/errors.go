package httputil

import (
	"fmt"
	"net/http"
)

// Code is a machine-readable error code returned in the error envelope
type Code string

const (
	CodeTokenMissing            Code = "AUTH_TOKEN_MISSING"
	CodeRoleNotAuthorized       Code = "AUTH_ROLE_NOT_AUTHORIZED"
	CodeCityCorporationMismatch Code = "AUTH_CITY_CORPORATION_MISMATCH"
	CodeZoneMismatch            Code = "AUTH_ZONE_MISMATCH"
	CodeWardMismatch            Code = "AUTH_WARD_MISMATCH"
	CodeInsufficientPermissions Code = "AUTH_INSUFFICIENT_PERMISSIONS"
	CodeViewOnlyMode            Code = "AUTH_VIEW_ONLY_MODE"
	CodeValidationFailed        Code = "VALIDATION_FAILED"
	CodePermissionConflict      Code = "PERMISSION_CONFLICT"
	CodeNotFound                Code = "NOT_FOUND"
	CodeServerError             Code = "SERVER_ERROR"
)

// APIError is a client-facing error with its HTTP status
type APIError struct {
	Status  int                    `json:"-"`
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error carrying the given details
func (e *APIError) WithDetails(details map[string]interface{}) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewAPIError creates an APIError
func NewAPIError(status int, code Code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// Unauthorized is a 401 AUTH_TOKEN_MISSING error
func Unauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, CodeTokenMissing, message)
}

// Forbidden is a 403 error with the given authorization code
func Forbidden(code Code, message string) *APIError {
	return NewAPIError(http.StatusForbidden, code, message)
}

// Validation is a 400 VALIDATION_FAILED error
func Validation(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, CodeValidationFailed, message)
}

// NotFound is a 404 error
func NotFound(message string) *APIError {
	return NewAPIError(http.StatusNotFound, CodeNotFound, message)
}

// Internal is a 500 SERVER_ERROR error
func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, CodeServerError, message)
}
