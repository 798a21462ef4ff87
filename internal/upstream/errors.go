package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedStatus matches every StatusError via errors.Is.
var ErrUnexpectedStatus = errors.New("upstream: unexpected status")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets callers test for ErrUnexpectedStatus without a type assertion.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}
