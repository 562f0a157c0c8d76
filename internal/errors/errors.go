// ABOUTME: Error body shapes exchanged with the REST API and the console's JSON endpoints.
// ABOUTME: Writes `{code, message, status}` bodies and extracts `message` from arbitrary ones.

package errors

import (
	"encoding/json"
	"net/http"
	"strings"
)

// GenericMessage is shown when a failure carries no usable message
const GenericMessage = "Server error!"

// ErrorResponse is the error body the API returns. Only Message is required
// by the console; Code and Status are informational.
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// WriteError writes a JSON error body with the given status.
//
// Example:
//
//	WriteError(w, http.StatusNotFound, ErrNotFound, "Pet with id '7' was not found.")
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		Status:  status,
	})
}

// MessageFromBody returns the `message` field of a JSON error body. ok is
// false when the body is not a JSON object or has no non-empty string
// message.
func MessageFromBody(body []byte) (message string, ok bool) {
	var resp struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false
	}
	msg, isString := resp.Message.(string)
	if !isString || strings.TrimSpace(msg) == "" {
		return "", false
	}
	return msg, true
}

// Common error codes
const (
	ErrInvalidRequest   = "invalid_request"
	ErrInvalidBody      = "invalid_request_body"
	ErrMissingField     = "missing_field"
	ErrValidationFailed = "validation_failed"
	ErrNotFound         = "not_found"
	ErrUnsupportedMedia = "unsupported_media_type"
	ErrInternal         = "internal_error"
)
