package dto

import (
	"net/http"
	"strings"
)

// Error code constants shared between handlers and the error envelope.
// Domain errors carry their own codes; the ones below cover transport-level
// failures.
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeValidationFailed is used when business validation rejects a request
	ErrCodeValidationFailed = "VALIDATION_FAILED"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeValidationFailed: http.StatusUnprocessableEntity,

	// Domain error codes
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INVALID_STATE":        http.StatusConflict,
	"NO_PENDING_APPROVAL":  http.StatusForbidden,
	"UNAUTHORIZED":         http.StatusUnauthorized,
	"INVALID_INPUT":        http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes produced by aggregate-level input checks all start with INVALID_ and
// map to 400; anything unknown maps to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
