package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for client errors.
var (
	// ErrRequestFailed marks failures below the envelope: transport errors,
	// non-2xx responses without an envelope, and unreadable bodies.
	ErrRequestFailed = errors.New("request failed")
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidBaseURL   = errors.New("invalid base url")
	ErrResponseTooLarge = errors.New("response too large")
)

// RequestError is a request that never produced a usable envelope.
type RequestError struct {
	Op     string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + ErrRequestFailed.Error()
	}
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, e.Err}
}

func (e *RequestError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// APIError is a business failure reported by the server in the envelope.
type APIError struct {
	Op      string
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// DisplayMessage normalizes any client error into the single line shown to
// the user.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch {
		case errors.Is(err, context.Canceled):
			return "request cancelled"
		case errors.Is(err, context.DeadlineExceeded):
			return "request timed out"
		case errors.Is(err, ErrResponseTooLarge):
			return "request failed: response too large"
		case reqErr.Status != 0:
			return fmt.Sprintf("request failed: %d %s", reqErr.Status, http.StatusText(reqErr.Status))
		default:
			return "request failed: unable to reach the server"
		}
	}

	return err.Error()
}
