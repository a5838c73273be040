// Package adminapi provides an authenticated client for the App Services
// Admin API: key-pair login, workspace/application identity resolution,
// lazy token refresh, and per-resource call handles.
package adminapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Session lifecycle errors. Use errors.Is(err, adminapi.ErrAuthentication) to check.
var (
	ErrAuthentication     = errors.New("adminapi: failed to obtain valid session from credential exchange")
	ErrIdentityResolution = errors.New("adminapi: could not resolve application identity from workspace")
	ErrUnknownResource    = errors.New("adminapi: unknown resource")
	ErrNotInitialized     = errors.New("adminapi: client not initialized")
	ErrInvalidOptions     = errors.New("adminapi: invalid options")
)

// Sentinel errors for HTTP status code classification.
var (
	ErrBadRequest   = errors.New("adminapi: bad request")
	ErrUnauthorized = errors.New("adminapi: unauthorized")
	ErrForbidden    = errors.New("adminapi: forbidden")
	ErrNotFound     = errors.New("adminapi: not found")
	ErrConflict     = errors.New("adminapi: conflict")
	ErrThrottled    = errors.New("adminapi: throttled")
	ErrServerError  = errors.New("adminapi: server error")
)

// APIError wraps a sentinel error with the HTTP status code and the
// service's error body. Code is the service's error_code field, if any.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("adminapi: HTTP %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("adminapi: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for codes without a dedicated sentinel.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
