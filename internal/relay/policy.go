package relay

import (
	"encoding/json"
	"net/http"

	"github.com/SirCryptic/iv-proxy/internal/models"
	"github.com/pkg/errors"
)

const (
	PolicyPassThrough = "pass-through"
	PolicyStrict      = "strict"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Policy turns an Outcome into the caller-visible response.
type Policy interface {
	Name() string
	// Evaluate decides whether a delivery counts as success, tagging it as rejected otherwise.
	Evaluate(Outcome) Outcome
	// Translate renders the outcome as a response.
	Translate(Outcome) models.Response
}

// ParsePolicy resolves a policy by name. An empty name returns nil so the shape default applies.
func ParsePolicy(name string, expectedStatus int) (Policy, error) {
	switch name {
	case "":
		return nil, nil
	case PolicyPassThrough:
		return NewPassThrough(), nil
	case PolicyStrict:
		return NewStrictSuccess(expectedStatus), nil
	default:
		return nil, errors.Errorf("unknown relay policy: %s", name)
	}
}

// PassThrough forwards the upstream response unmodified.
type PassThrough struct{}

func NewPassThrough() *PassThrough {
	return &PassThrough{}
}

func (p *PassThrough) Name() string {
	return PolicyPassThrough
}

func (p *PassThrough) Evaluate(o Outcome) Outcome {
	return o
}

func (p *PassThrough) Translate(o Outcome) models.Response {
	if o.Failure == nil {
		resp := models.Response{Body: o.Delivery.Body, StatusCode: o.Delivery.StatusCode}
		if o.Delivery.ContentType != "" {
			resp.Headers = map[string]string{"Content-Type": o.Delivery.ContentType}
		}
		return resp
	}

	switch o.Failure.Kind {
	case KindValidation:
		return jsonError(http.StatusBadRequest, o.Failure.Message)
	default:
		msg := o.Failure.Message
		if o.Failure.Detail != "" {
			msg = o.Failure.Detail
		}
		return jsonError(http.StatusInternalServerError, msg)
	}
}

func jsonError(status int, message string) models.Response {
	body, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: message})
	return models.Response{
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": contentTypeJSON},
		StatusCode: status,
	}
}

// StrictSuccess accepts exactly one upstream status as success.
type StrictSuccess struct {
	Expected int
}

// NewStrictSuccess returns a strict policy; a zero expected status means 204 No Content.
func NewStrictSuccess(expected int) *StrictSuccess {
	if expected == 0 {
		expected = http.StatusNoContent
	}
	return &StrictSuccess{Expected: expected}
}

func (p *StrictSuccess) Name() string {
	return PolicyStrict
}

func (p *StrictSuccess) Evaluate(o Outcome) Outcome {
	if o.Failure != nil || o.Delivery.StatusCode == p.Expected {
		return o
	}
	o.Failure = &Failure{
		Kind:       KindRejected,
		Message:    "Failed to send to webhook",
		StatusCode: o.Delivery.StatusCode,
	}
	return o
}

func (p *StrictSuccess) Translate(o Outcome) models.Response {
	if o.Failure == nil {
		return text(http.StatusOK, "OK")
	}

	switch o.Failure.Kind {
	case KindValidation:
		return text(http.StatusBadRequest, o.Failure.Message)
	case KindRejected:
		return text(o.Failure.StatusCode, o.Failure.Message)
	default:
		return text(http.StatusInternalServerError, "Error")
	}
}

func text(status int, body string) models.Response {
	return models.Response{
		Body:       body,
		Headers:    map[string]string{"Content-Type": contentTypeText},
		StatusCode: status,
	}
}
