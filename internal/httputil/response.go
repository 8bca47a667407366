package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequestBody      = "INVALID_REQUEST_BODY"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeEmailAlreadyExists      = "EMAIL_ALREADY_EXISTS"
	CodeUsernameAlreadyExists   = "USERNAME_ALREADY_EXISTS"
	CodeMissingCredentials      = "MISSING_CREDENTIALS"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeInvalidConfirmation     = "INVALID_CONFIRMATION_TOKEN"
	CodeConfirmationExpired     = "CONFIRMATION_TOKEN_EXPIRED"
	CodeVerificationEmailFailed = "VERIFICATION_EMAIL_FAILED"
	CodeInvalidAuthHeader       = "INVALID_AUTH_HEADER"
	CodeMissingAuth             = "MISSING_AUTH"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeInternalError           = "INTERNAL_ERROR"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse is the body of responses that carry only a message,
// optionally with a payload.
type MessageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondMessage sends a MessageResponse.
func RespondMessage(w http.ResponseWriter, message string, data any, statusCode int) {
	RespondJSON(w, MessageResponse{Message: message, Data: data}, statusCode)
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}
