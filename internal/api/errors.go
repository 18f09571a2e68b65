package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an upstream body is echoed into error messages
const maxErrorBody = 2048

// TokenExchangeError is returned when the token endpoint answers without an access token
type TokenExchangeError struct {
	StatusCode  int
	Body        string
	Code        string // OAuth2 "error" field, e.g. invalid_grant
	Description string // OAuth2 "error_description" field
}

func (e *TokenExchangeError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "empty response"
	}
	return fmt.Sprintf("token exchange failed (HTTP %d): %s", e.StatusCode, truncate(body, maxErrorBody))
}

// ReportAPIError is returned when the Data API rejects a runReport request
type ReportAPIError struct {
	StatusCode int
	Code       int    // error.code from the response body
	Status     string // error.status, e.g. PERMISSION_DENIED
	Message    string
}

func (e *ReportAPIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("GA4 Data API returned status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("GA4 Data API returned status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the upstream signalled a transient condition
func (e *ReportAPIError) Temporary() bool {
	code := e.StatusCode
	if e.Code != 0 {
		code = e.Code
	}
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// NetworkError wraps a transport failure on one of the outbound calls
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// transportError classifies a failed round trip. Cancellation is returned as a
// wrapped context error so callers can match context.Canceled.
func transportError(ctx context.Context, op, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s cancelled: %w", op, ctxErr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s cancelled: %w", op, err)
	}
	return &NetworkError{Op: op, URL: url, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
