package notify

import (
	"net/http"
	"time"

	"github.com/okian/pwnwatch/pkg/logger"
)

// Option configures a Webhook.
type Option func(*Webhook)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(w *Webhook) {
		if hc != nil {
			w.http = hc
		}
	}
}

// WithTimeout bounds each webhook post.
func WithTimeout(d time.Duration) Option {
	return func(w *Webhook) {
		if d > 0 {
			w.http.Timeout = d
		}
	}
}

// WithUsername sets the display name of posted messages.
func WithUsername(name string) Option {
	return func(w *Webhook) {
		w.username = name
	}
}

// WithLogger overrides the logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Webhook) {
		if l != nil {
			w.log = l
		}
	}
}
