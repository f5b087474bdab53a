// Package runtime adapts relay handlers to net/http and to AWS Lambda invocations.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/SirCryptic/iv-proxy/internal/helpers"
	"github.com/SirCryptic/iv-proxy/internal/models"
	"github.com/SirCryptic/iv-proxy/internal/relay"
	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

// Supported Lambda payload types.
const (
	PayloadAPIGatewayV1 = "api-gateway-v1"
	PayloadAPIGatewayV2 = "api-gateway-v2"
	PayloadLambdaURL    = "lambda-url"
)

// Handler handles one relay request.
type Handler interface {
	Handle(ctx context.Context, req models.Request) models.Response
}

type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithRoute serves h on the exact path.
func WithRoute(path string, h Handler) Option {
	return func(r *Runtime) {
		r.routes[path] = h
	}
}

// WithLambdaPayloadType selects the Lambda event format decoded by HandleEvent.
func WithLambdaPayloadType(payloadType string) Option {
	return func(r *Runtime) {
		r.lambdaPayloadType = payloadType
	}
}

type Runtime struct {
	logger            *slog.Logger
	routes            map[string]Handler
	lambdaPayloadType string
}

// NewRuntime creates a new runtime instance
func NewRuntime(opts ...Option) *Runtime {
	_inst := &Runtime{
		routes:            make(map[string]Handler),
		lambdaPayloadType: PayloadAPIGatewayV2,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return _inst
}

// Paths returns the routed paths.
func (r *Runtime) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	return paths
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	headers := helpers.LowerHeaders(req.Header)
	response := r.dispatch(req.Context(), req.Method, req.URL.Path, req.URL.Query(), headers)
	r.logger.Debug("served HTTP request",
		slog.Any("requestor", req.RemoteAddr),
		slog.String("requestId", response.Headers[http.CanonicalHeaderKey(relay.HeaderRequestID)]),
		slog.Int("statusCode", response.StatusCode))
	helpers.RespondHTTP(response, resp)
}

// HandleEvent is the Lambda handler for the runtime
func (r *Runtime) HandleEvent(ctx context.Context, payload json.RawMessage) (any, error) {
	r.logger.Info("received Lambda invocation", slog.String("payloadType", r.lambdaPayloadType))

	switch r.lambdaPayloadType {
	case PayloadAPIGatewayV1:
		var e events.APIGatewayProxyRequest
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", r.lambdaPayloadType, err)
		}
		query := url.Values(e.MultiValueQueryStringParameters)
		if len(query) == 0 {
			query = url.Values{}
			for k, v := range e.QueryStringParameters {
				query.Set(k, v)
			}
		}
		result := r.dispatch(ctx, e.HTTPMethod, e.Path, query, lowerKeys(e.Headers))
		return events.APIGatewayProxyResponse{
			Body:       result.Body,
			Headers:    result.Headers,
			StatusCode: result.StatusCode,
		}, nil
	case PayloadAPIGatewayV2:
		var e events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", r.lambdaPayloadType, err)
		}
		result := r.dispatch(ctx, e.RequestContext.HTTP.Method, e.RawPath, rawQuery(e.RawQueryString, e.QueryStringParameters), lowerKeys(e.Headers))
		return events.APIGatewayV2HTTPResponse{
			Body:       result.Body,
			Headers:    result.Headers,
			StatusCode: result.StatusCode,
		}, nil
	case PayloadLambdaURL:
		var e events.LambdaFunctionURLRequest
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", r.lambdaPayloadType, err)
		}
		result := r.dispatch(ctx, e.RequestContext.HTTP.Method, e.RawPath, rawQuery(e.RawQueryString, e.QueryStringParameters), lowerKeys(e.Headers))
		return events.LambdaFunctionURLResponse{
			Body:       result.Body,
			Headers:    result.Headers,
			StatusCode: result.StatusCode,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported lambda payload type: %s", r.lambdaPayloadType)
	}
}

func (r *Runtime) dispatch(ctx context.Context, method, path string, query url.Values, headers map[string]string) models.Response {
	id := headers[relay.HeaderRequestID]
	if id == "" {
		id = uuid.New().String()
		headers[relay.HeaderRequestID] = id
	}
	logger := r.logger.With(slog.String("requestId", id), slog.String("path", path))

	var response models.Response
	switch method {
	case http.MethodGet, http.MethodHead:
		h, found := r.routes[path]
		if !found {
			logger.Debug("rejecting request...", "reason", "no route")
			response = models.Response{Body: http.StatusText(http.StatusNotFound), StatusCode: http.StatusNotFound}
			break
		}
		logger.Debug("processing request...")
		response = h.Handle(ctx, models.Request{Path: path, Query: query, Headers: headers})
	default:
		logger.Debug("rejecting request...", "reason", "method not allowed", slog.String("method", method))
		response = models.Response{
			Body:       http.StatusText(http.StatusMethodNotAllowed),
			Headers:    map[string]string{"Allow": "GET, HEAD"},
			StatusCode: http.StatusMethodNotAllowed,
		}
	}

	if response.Headers == nil {
		response.Headers = make(map[string]string, 1)
	}
	response.Headers[http.CanonicalHeaderKey(relay.HeaderRequestID)] = id
	return response
}

func rawQuery(raw string, params map[string]string) url.Values {
	if raw != "" {
		if q, err := url.ParseQuery(raw); err == nil {
			return q
		}
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return q
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}
