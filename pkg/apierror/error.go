package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// CodeNetwork marks a request that never produced an HTTP response.
const CodeNetwork = "NETWORK_ERROR"

// Error represents a structured API error. On the client side it carries the
// status and raw body of a failed response; on the fake backend it is
// rendered as the response body.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	Details    []FieldError `json:"details,omitempty"`

	// Body is the raw response body, when one was received.
	Body []byte `json:"-"`

	serverMessage string
	err           error
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil && e.Code == CodeNetwork {
		return e.Message + ": " + e.err.Error()
	}
	return e.Message
}

// Unwrap exposes the transport error behind a network failure.
func (e *Error) Unwrap() error {
	return e.err
}

// WithDetails adds field-level error details.
func (e *Error) WithDetails(details ...FieldError) *Error {
	e.Details = details
	return e
}

// ToJSON converts the error to the backend's error body shape.
func (e *Error) ToJSON() []byte {
	body := map[string]interface{}{
		"error": e.Message,
		"code":  e.Code,
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}

	data, _ := json.Marshal(body)
	return data
}

// Network wraps a transport failure (DNS, refused connection, timeout,
// cancelled context).
func Network(err error) *Error {
	return &Error{
		Code:    CodeNetwork,
		Message: "network error",
		err:     err,
	}
}

// FromResponse builds an error from a non-2xx response. The message is taken
// from the body's "error", "message" or "msg" field when present.
func FromResponse(status int, body []byte) *Error {
	msg := messageFromBody(body)
	e := &Error{
		StatusCode:    status,
		Code:          codeForStatus(status),
		Message:       msg,
		Body:          body,
		serverMessage: msg,
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func messageFromBody(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message", "msg"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		// {"error": {"code": "...", "message": "..."}}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return ""
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "BAD_REQUEST"
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusConflict:
		return "CONFLICT"
	case status == http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case status == http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case status >= 500:
		return "INTERNAL_ERROR"
	default:
		return "HTTP_" + strings.ReplaceAll(strings.ToUpper(http.StatusText(status)), " ", "_")
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status behind err, or 0 if no response was received.
func StatusOf(err error) int {
	if apiErr, ok := As(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Code == CodeNetwork
}

// ServerMessage returns the message the backend put in the error body, or "".
func ServerMessage(err error) string {
	if apiErr, ok := As(err); ok {
		return apiErr.serverMessage
	}
	return ""
}

// MessageOr returns the backend's message for err, falling back to fallback.
func MessageOr(err error, fallback string) string {
	if msg := ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
	}
}

// ValidationError creates a 400 error with validation details.
func ValidationError(message string, details ...FieldError) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Details:    details,
	}
}

// Unauthorized creates a 401 Unauthorized error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

// Forbidden creates a 403 Forbidden error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// Conflict creates a 409 Conflict error.
func Conflict(message string) *Error {
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
	}
}
