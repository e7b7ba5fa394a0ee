package jobsapi

import (
	"errors"
	"fmt"
)

// Fetch failures. Callers that only care whether a fetch worked can treat
// every error the same; Kind exposes the distinction for logs and metrics.
var (
	ErrTransport = errors.New("jobsapi: transport failure")
	ErrServer    = errors.New("jobsapi: server failure")
	ErrMalformed = errors.New("jobsapi: malformed response")
	ErrEmpty     = errors.New("jobsapi: empty result")
)

// StatusError is returned for non-2xx responses and matches ErrServer.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jobsapi: unexpected status: %s", e.Status)
}

func (e *StatusError) Unwrap() error { return ErrServer }

// Kind returns a short label for a fetch error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrServer):
		return "server"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrEmpty):
		return "empty"
	default:
		return "unknown"
	}
}
