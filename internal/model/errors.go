package model

import (
	"fmt"
	"time"
)

// ErrorKind classifies a failed call to the LLM provider.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindTimeout
	KindRateLimited
	KindAPI
	KindConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindAPI:
		return "api_error"
	case KindConnection:
		return "connection_error"
	default:
		return "unexpected_error"
	}
}

// TransportError is returned by LLM providers when a completion request fails
// before a usable response body is available. Kind drives retry logging.
type TransportError struct {
	Kind ErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError wraps a non-2xx HTTP status so callers can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
