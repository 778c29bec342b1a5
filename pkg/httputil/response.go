package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the envelope for every failed request
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// SuccessResponse is the envelope for every successful request
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteAPIError writes the error envelope for an APIError
func WriteAPIError(w http.ResponseWriter, apiErr *APIError) {
	WriteJSON(w, apiErr.Status, ErrorResponse{Success: false, Error: apiErr})
}

// WriteError writes err as an error envelope. Errors that are not an *APIError
// become a generic SERVER_ERROR so internal messages never reach the client.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		WriteAPIError(w, apiErr)
		return
	}
	WriteAPIError(w, Internal("An unexpected error occurred"))
}

// WriteForbidden writes a 403 with the given code
func WriteForbidden(w http.ResponseWriter, code Code, message string) {
	WriteAPIError(w, Forbidden(code, message))
}

// WriteValidationError writes a 400 VALIDATION_FAILED error
func WriteValidationError(w http.ResponseWriter, message string) {
	WriteAPIError(w, Validation(message))
}

// WriteUnauthorized writes a 401 AUTH_TOKEN_MISSING error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteAPIError(w, Unauthorized(message))
}

// WriteNotFound writes a 404 error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteAPIError(w, NotFound(message))
}

// WriteInternalError writes a 500 SERVER_ERROR
func WriteInternalError(w http.ResponseWriter) {
	WriteAPIError(w, Internal("An unexpected error occurred"))
}

// WriteSuccess writes a 200 success envelope with data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// WriteSuccessMessage writes a 200 success envelope with a message
func WriteSuccessMessage(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message, Data: data})
}
