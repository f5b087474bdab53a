// Package relay translates inbound relay requests into one webhook POST and maps the result back.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SirCryptic/iv-proxy/internal/helpers"
	"github.com/SirCryptic/iv-proxy/internal/models"
	"github.com/SirCryptic/iv-proxy/internal/observability"
	"github.com/pkg/errors"
)

// HeaderRequestID carries the request id assigned by the runtime (lower-case, like all request headers).
const HeaderRequestID = "x-request-id"

// Dispatcher performs the outbound webhook POST.
type Dispatcher interface {
	Post(ctx context.Context, url string, payload []byte) (*models.Delivery, error)
}

// Archiver stores a record of every dispatched message.
type Archiver interface {
	Archive(ctx context.Context, id string, record any) error
}

// Record is the archived trace of one dispatched message. Destinations are never recorded.
type Record struct {
	Time       time.Time `json:"time"`
	RequestID  string    `json:"requestId,omitempty"`
	Route      string    `json:"route"`
	Shape      string    `json:"shape"`
	Content    string    `json:"content"`
	Outcome    string    `json:"outcome"`
	StatusCode int       `json:"statusCode,omitempty"`
}

type Option func(*Handler)

// Handler relays one request per call. It holds no per-request state and is safe for concurrent use.
type Handler struct {
	logger     *slog.Logger
	route      string
	shape      Shape
	policy     Policy
	dispatcher Dispatcher
	archiver   Archiver
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewHandler creates a handler for the given shape, dispatching through d.
func NewHandler(shape Shape, d Dispatcher, opts ...Option) (*Handler, error) {
	if shape == nil {
		return nil, errors.New("relay shape is required")
	}
	if d == nil {
		return nil, errors.New("relay dispatcher is required")
	}
	_inst := &Handler{
		shape:      shape,
		dispatcher: d,
		logger:     helpers.NewNoopLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.policy == nil {
		_inst.policy = shape.DefaultPolicy()
	}
	if _inst.route == "" {
		_inst.route = shape.Name()
	}
	_inst.logger = _inst.logger.With(slog.String("route", _inst.route), slog.String("shape", shape.Name()), slog.String("policy", _inst.policy.Name()))
	return _inst, nil
}

// Route returns the route label of the handler.
func (h *Handler) Route() string {
	return h.route
}

// Handle relays req and returns the caller-visible response.
func (h *Handler) Handle(ctx context.Context, req models.Request) models.Response {
	logger := h.logger
	if id := req.Headers[HeaderRequestID]; id != "" {
		logger = logger.With(slog.String("requestId", id))
	}

	outcome := h.relay(ctx, logger, req)
	h.metrics.ObserveRequest(h.route, outcome.Label())
	return h.policy.Translate(outcome)
}

func (h *Handler) relay(ctx context.Context, logger *slog.Logger, req models.Request) Outcome {
	msg, ok := h.shape.Extract(req.Query)
	if !ok {
		logger.Warn("rejecting request", slog.String("reason", h.shape.MissingFieldsMessage()))
		return validationFailure(h.shape.MissingFieldsMessage())
	}

	body, err := json.Marshal(Payload{Content: msg.Content})
	if err != nil {
		return transportFailure(errors.Wrap(err, "failed to encode payload"))
	}

	logger.Debug("dispatching message...", slog.String("content", helpers.Truncate(msg.Content, 64)))
	start := h.now()
	delivery, err := h.dispatcher.Post(ctx, msg.Destination, body)
	elapsed := h.now().Sub(start)

	var outcome Outcome
	if err != nil {
		logger.Error("failed to reach webhook", slog.Any("error", err))
		h.metrics.ObserveUpstream(h.route, 0, elapsed)
		outcome = transportFailure(err)
		if h.shape.CallerAddressed() {
			outcome.Failure.Detail = err.Error()
		}
	} else {
		h.metrics.ObserveUpstream(h.route, delivery.StatusCode, elapsed)
		outcome = h.policy.Evaluate(Outcome{Delivery: delivery})
		if outcome.Failure != nil {
			logger.Warn("webhook rejected message", slog.Int("statusCode", delivery.StatusCode))
		} else {
			logger.Info("message relayed", slog.Int("statusCode", delivery.StatusCode))
		}
	}

	h.archive(ctx, logger, req, msg, outcome)
	return outcome
}

func (h *Handler) archive(ctx context.Context, logger *slog.Logger, req models.Request, msg Message, outcome Outcome) {
	if h.archiver == nil {
		return
	}
	record := Record{
		Time:      h.now().UTC(),
		RequestID: req.Headers[HeaderRequestID],
		Route:     h.route,
		Shape:     h.shape.Name(),
		Content:   msg.Content,
		Outcome:   outcome.Label(),
	}
	if outcome.Delivery != nil {
		record.StatusCode = outcome.Delivery.StatusCode
	}
	id := record.RequestID
	if id == "" {
		id = h.route
	}
	if err := h.archiver.Archive(ctx, id, record); err != nil {
		logger.Warn("failed to archive message", slog.Any("error", err))
	}
}
