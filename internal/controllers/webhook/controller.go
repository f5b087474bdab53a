// Package webhook provides the Controller that posts JSON payloads to chat webhook destinations.
package webhook

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SirCryptic/iv-proxy/internal/helpers"
	"github.com/SirCryptic/iv-proxy/internal/models"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// ErrResponseTooLarge is returned when the upstream body exceeds the configured limit.
var ErrResponseTooLarge = errors.New("webhook response too large")

// Controller performs exactly one POST per call. It never retries.
type Controller struct {
	logger  *slog.Logger
	client  *http.Client
	timeout time.Duration
	// maxBody caps the upstream response body. Larger bodies fail the call. Zero means unlimited.
	maxBody int64

	errorSometimes *rate.Sometimes
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller. Without WithClient, an instrumented client with no timeout is used.
func NewController(opts ...Option) *Controller {
	_inst := &Controller{errorSometimes: helpers.NewOnceAMinute()}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "webhook")
	if _inst.client == nil {
		_inst.client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return _inst
}

// Post sends payload to url with Content-Type application/json and returns the upstream response.
// Any response, whatever its status, is a Delivery; only transport failures return an error.
func (c *Controller) Post(ctx context.Context, url string, payload []byte) (*models.Delivery, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logTransportError(err)
		return nil, errors.Wrap(err, "webhook request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	var reader io.Reader = resp.Body
	if c.maxBody > 0 {
		reader = io.LimitReader(resp.Body, c.maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		c.logTransportError(err)
		return nil, errors.Wrap(err, "failed to read webhook response")
	}
	if c.maxBody > 0 && int64(len(body)) > c.maxBody {
		err = errors.Wrapf(ErrResponseTooLarge, "status %d, limit %d bytes", resp.StatusCode, c.maxBody)
		c.logTransportError(err)
		return nil, err
	}

	c.logger.Debug("webhook responded", slog.Int("statusCode", resp.StatusCode), slog.Int("bytes", len(body)))
	return &models.Delivery{
		StatusCode:  resp.StatusCode,
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *Controller) logTransportError(err error) {
	logged := false
	c.errorSometimes.Do(func() {
		logged = true
		c.logger.Error("webhook destination unreachable", slog.Any("error", err))
	})
	if !logged {
		c.logger.Debug("webhook destination unreachable", slog.Any("error", err))
	}
}
