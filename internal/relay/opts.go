package relay

import (
	"log/slog"
	"time"

	"github.com/SirCryptic/iv-proxy/internal/observability"
)

// WithLogger sets the logger instance for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithRoute sets the route label used in logs, metrics and archive records.
func WithRoute(route string) Option {
	return func(h *Handler) {
		h.route = route
	}
}

// WithPolicy overrides the shape's default result translation. A nil policy keeps the default.
func WithPolicy(policy Policy) Option {
	return func(h *Handler) {
		h.policy = policy
	}
}

// WithArchiver enables archiving of dispatched messages.
func WithArchiver(archiver Archiver) Option {
	return func(h *Handler) {
		h.archiver = archiver
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}
