// Package aws provides the Controller struct that wraps AWS services and provides S3 and SSM functionality with logging support.
package aws

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SirCryptic/iv-proxy/internal/helpers"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go/logging"
	"github.com/pkg/errors"
)

// S3API is the subset of the S3 client used by the Controller.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SSMAPI is the subset of the SSM client used by the Controller.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Controller represents a wrapper for AWS services providing S3 and SSM functionality with logging support.
type Controller struct {
	logger *slog.Logger

	config    *aws.Config
	s3Client  S3API
	ssmClient SSMAPI
	now       func() time.Time
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller with customizable options and default configurations if unspecified.
// The default AWS configuration is only loaded when a client has not been supplied.
func NewController(ctx context.Context, opts ...Option) (*Controller, error) {
	_inst := &Controller{now: time.Now}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "aws")
	if _inst.s3Client != nil && _inst.ssmClient != nil {
		return _inst, nil
	}
	if _inst.config == nil {
		_inst.logger.Debug("loading default AWS configuration...")
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS configuration")
		}
		cfg.Logger = newAWSLogger(_inst.logger)
		_inst.config = &cfg
	}

	if _inst.s3Client == nil {
		_inst.s3Client = s3.NewFromConfig(*_inst.config)
	}
	if _inst.ssmClient == nil {
		_inst.ssmClient = ssm.NewFromConfig(*_inst.config)
	}
	return _inst, nil
}

// GetSecret retrieves a value from SSM Parameter Store using the provided key.
// If decrypt is true, SecureString parameters are returned decrypted.
func (a *Controller) GetSecret(ctx context.Context, key string, decrypt bool) (string, error) {
	a.logger.With("key", key).Debug("fetching SSM secret...")
	ssmResponse, err := a.ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to load SSM parameter")
	}
	if ssmResponse.Parameter == nil || helpers.String(ssmResponse.Parameter.Value) == "" {
		return "", errors.Errorf("SSM parameter %s is empty", key)
	}
	return helpers.String(ssmResponse.Parameter.Value), nil
}

// PutS3Object uploads a JSON object to the specified S3 bucket with a key formatted as a timestamp and the provided ID.
// An empty bucket name is a no-op.
func (a *Controller) PutS3Object(ctx context.Context, id string, bucket string, body []byte) error {
	if bucket == "" {
		return nil
	}
	key := fmt.Sprintf("%s.%s.json", a.now().UTC().Format(time.RFC3339Nano), objectID(id))
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrap(err, "failed to put object to S3")
	}
	a.logger.Debug("archived object", slog.String("bucket", bucket), slog.String("key", key))
	return nil
}

const maxObjectIDLength = 64

// objectID keeps only [A-Za-z0-9._-] from id so it cannot add prefixes to the object key.
func objectID(id string) string {
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, id)
	if len(id) > maxObjectIDLength {
		id = id[:maxObjectIDLength]
	}
	if id == "" {
		return "record"
	}
	return id
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...)))
}
