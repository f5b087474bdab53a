package relay

import (
	"net/url"

	"github.com/pkg/errors"
)

// Message is a validated relay request: where to send it and what to say.
type Message struct {
	Destination string
	Content     string
}

// Payload is the JSON body posted to the webhook destination.
type Payload struct {
	Content string `json:"content"`
}

// Shape extracts a Message from the inbound query parameters.
type Shape interface {
	Name() string
	// Extract returns the message, or false when a required field is missing or empty.
	Extract(query url.Values) (Message, bool)
	// MissingFieldsMessage is reported to the caller on validation failure.
	MissingFieldsMessage() string
	// DefaultPolicy is the result translation used when none is configured.
	DefaultPolicy() Policy
	// CallerAddressed reports whether the destination came from the caller. Configured
	// destinations embed a credential and must never be echoed back.
	CallerAddressed() bool
}

const (
	ShapeForward = "forward"
	ShapeRelay   = "relay"
)

// Forward takes the destination from the caller: ?webhook=<url>&postData=<text>.
type Forward struct{}

// NewForward returns the caller-addressed shape.
func NewForward() *Forward {
	return &Forward{}
}

func (f *Forward) Name() string {
	return ShapeForward
}

func (f *Forward) Extract(query url.Values) (Message, bool) {
	webhook, postData := query.Get("webhook"), query.Get("postData")
	if webhook == "" || postData == "" {
		return Message{}, false
	}
	return Message{Destination: webhook, Content: postData}, true
}

func (f *Forward) MissingFieldsMessage() string {
	return "Missing webhook or postData"
}

func (f *Forward) DefaultPolicy() Policy {
	return NewPassThrough()
}

func (f *Forward) CallerAddressed() bool {
	return true
}

// Relay posts "<value1> said: <value2>" to a destination fixed at construction.
type Relay struct {
	webhookURL string
}

// NewRelay returns the configuration-addressed shape.
func NewRelay(webhookURL string) (*Relay, error) {
	if webhookURL == "" {
		return nil, errors.New("relay webhook URL is required")
	}
	return &Relay{webhookURL: webhookURL}, nil
}

func (r *Relay) Name() string {
	return ShapeRelay
}

func (r *Relay) Extract(query url.Values) (Message, bool) {
	name, text := query.Get("value1"), query.Get("value2")
	if name == "" || text == "" {
		return Message{}, false
	}
	return Message{Destination: r.webhookURL, Content: Said(name, text)}, true
}

func (r *Relay) MissingFieldsMessage() string {
	return "Missing value1 or value2"
}

func (r *Relay) DefaultPolicy() Policy {
	return NewStrictSuccess(0)
}

func (r *Relay) CallerAddressed() bool {
	return false
}

// Said formats an attributed chat line.
func Said(name, text string) string {
	return name + " said: " + text
}
