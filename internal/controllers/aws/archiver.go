package aws

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Archiver stores JSON records in a single S3 bucket.
type Archiver struct {
	controller *Controller
	bucket     string
}

// NewArchiver returns an Archiver writing to bucket.
func NewArchiver(controller *Controller, bucket string) (*Archiver, error) {
	if bucket == "" {
		return nil, errors.New("archive bucket name is required")
	}
	return &Archiver{controller: controller, bucket: bucket}, nil
}

// Archive marshals record to JSON and uploads it under a key derived from id.
func (a *Archiver) Archive(ctx context.Context, id string, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to encode archive record")
	}
	return a.controller.PutS3Object(ctx, id, a.bucket, body)
}
