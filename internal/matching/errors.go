package matching

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable means the health probe failed or timed out and the
// batch call was never attempted.
var ErrServiceUnavailable = errors.New("matching service unavailable")

// ServiceError is a non-2xx or malformed response from the matching
// service. The body is kept verbatim as diagnostic detail.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("matching service error: status %d, body: %s", e.StatusCode, e.Body)
}
