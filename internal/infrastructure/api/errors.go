package api

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for auth outcomes. The sync loop never retries these.
var (
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
)

// RateLimitedError is returned for 429 responses. RetryAfter carries the
// server-suggested delay when a Retry-After header was present.
type RateLimitedError struct {
	RetryAfter *time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter != nil {
		return fmt.Sprintf("api: rate limited, retry after %s", *e.RetryAfter)
	}
	return "api: rate limited"
}

// ServerError is returned for 5xx responses (and unexpected statuses).
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("api: server error (status %d)", e.Status)
}

// DecodingError is returned when a 2xx body fails to decode. Retrying will
// not change a schema mismatch, so callers treat this as fatal.
type DecodingError struct {
	cause error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("api: failed to decode response: %v", e.cause)
}

func (e *DecodingError) Unwrap() error {
	return e.cause
}

// NetworkError is returned for transport-level failures.
type NetworkError struct {
	cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: network failure: %v", e.cause)
}

func (e *NetworkError) Unwrap() error {
	return e.cause
}

// UserMessage maps an API error to a message suitable for display.
func UserMessage(err error) string {
	var (
		rateLimited *RateLimitedError
		serverErr   *ServerError
		decodingErr *DecodingError
		networkErr  *NetworkError
	)
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to perform this action."
	case errors.As(err, &rateLimited):
		if rateLimited.RetryAfter != nil {
			return fmt.Sprintf("Too many requests. Try again in %d seconds.", int(rateLimited.RetryAfter.Seconds()))
		}
		return "Too many requests. Please try again later."
	case errors.As(err, &serverErr):
		return fmt.Sprintf("Server error (%d). Please try again later.", serverErr.Status)
	case errors.As(err, &decodingErr):
		return "We ran into an unexpected response from the server."
	case errors.As(err, &networkErr):
		return networkErr.cause.Error()
	default:
		return err.Error()
	}
}
