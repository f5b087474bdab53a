package aws

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Controller) {
		a.logger = logger
	}
}

// WithConfig uses cfg instead of the default AWS configuration chain.
func WithConfig(cfg *aws.Config) Option {
	return func(a *Controller) {
		a.config = cfg
	}
}

// WithS3Client overrides the S3 client.
func WithS3Client(client S3API) Option {
	return func(a *Controller) {
		a.s3Client = client
	}
}

// WithSSMClient overrides the SSM client.
func WithSSMClient(client SSMAPI) Option {
	return func(a *Controller) {
		a.ssmClient = client
	}
}

// WithClock replaces time.Now when building object keys.
func WithClock(now func() time.Time) Option {
	return func(a *Controller) {
		a.now = now
	}
}
