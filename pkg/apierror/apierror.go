package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kinds of failure surfaced to API clients. Every APIError built by the
// constructors below unwraps to one of these, so callers can use errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrToken          = errors.New("token error")
	ErrPermission     = errors.New("permission error")
	ErrNotFound       = errors.New("not found")
)

const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_FAILED"
	CodeToken          = "TOKEN_INVALID"
	CodePermission     = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeBadRequest     = "BAD_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
)

type APIError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
	kind       error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.kind
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Validation reports malformed or out-of-range input. fields maps the
// offending field name to a human readable reason.
func Validation(message string, fields map[string]string) *APIError {
	err := New(CodeValidation, message, "", http.StatusBadRequest)
	err.Fields = fields
	err.kind = ErrValidation
	return err
}

// FieldError is a Validation error for a single field.
func FieldError(field string, reason string) *APIError {
	return Validation("invalid input", map[string]string{field: reason})
}

// Authentication never says which credential was wrong.
func Authentication() *APIError {
	err := New(CodeAuthentication, "invalid credentials", "", http.StatusUnauthorized)
	err.kind = ErrAuthentication
	return err
}

func Token(message string) *APIError {
	err := New(CodeToken, message, "", http.StatusUnauthorized)
	err.kind = ErrToken
	return err
}

func Permission(message string) *APIError {
	err := New(CodePermission, message, "", http.StatusForbidden)
	err.kind = ErrPermission
	return err
}

func NotFound(resource string, id string) *APIError {
	err := New(CodeNotFound, resource+" not found", id, http.StatusNotFound)
	err.kind = ErrNotFound
	return err
}
