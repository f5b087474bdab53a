package webhook

import (
	"log/slog"
	"net/http"
	"time"
)

// WithLogger sets a custom slog.Logger instance for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClient replaces the HTTP client used for outbound calls.
func WithClient(client *http.Client) Option {
	return func(c *Controller) {
		c.client = client
	}
}

// WithTimeout bounds each outbound call. Zero leaves the client default in place.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

// WithMaxResponseBytes caps how much of each upstream response body is read.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Controller) {
		c.maxBody = n
	}
}
