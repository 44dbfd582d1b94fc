package notify

import (
	"errors"
	"fmt"
)

var ErrNoWebhook = errors.New("webhook url not configured")

// StatusError is a non-2xx webhook response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook: status %d: %s", e.StatusCode, e.Body)
}
