package platform

import (
	"errors"
	"fmt"
)

var (
	ErrDecode          = errors.New("decode platform response")
	ErrMalformedRecord = errors.New("malformed platform record")
	ErrMissingTeam     = errors.New("platform team id not configured")
)

// HTTPError is a non-2xx response that survived every retry.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("platform %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("platform %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Temporary reports whether retrying later may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
