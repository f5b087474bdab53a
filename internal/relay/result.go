package relay

import (
	"fmt"

	"github.com/SirCryptic/iv-proxy/internal/models"
)

// Kind classifies why a relay request did not complete as a delivery.
type Kind int

const (
	// KindValidation is raised when a required field is missing or empty. No outbound call is made.
	KindValidation Kind = iota + 1
	// KindTransport is raised when the outbound call itself fails.
	KindTransport
	// KindRejected is raised when the destination answered with a status the policy does not accept.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failure is a tagged relay error.
type Failure struct {
	Kind    Kind
	Message string
	// StatusCode is the upstream status for KindRejected failures.
	StatusCode int
	// Detail is the caller-visible description of Cause. Empty when Cause may not leave the process.
	Detail string
	Cause  error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Outcome is the result of one relay cycle. Delivery is set whenever the destination answered,
// Failure whenever the cycle did not succeed. A rejected delivery carries both.
type Outcome struct {
	Delivery *models.Delivery
	Failure  *Failure
}

// Label returns the metrics/archive label of the outcome.
func (o Outcome) Label() string {
	if o.Failure != nil {
		return o.Failure.Kind.String()
	}
	return "delivered"
}

func validationFailure(message string) Outcome {
	return Outcome{Failure: &Failure{Kind: KindValidation, Message: message}}
}

func transportFailure(err error) Outcome {
	return Outcome{Failure: &Failure{Kind: KindTransport, Message: "webhook request failed", Cause: err}}
}
