package aws_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	awsctl "github.com/SirCryptic/iv-proxy/internal/controllers/aws"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	bucket, key, contentType, body string
	calls                          int
	err                            error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.bucket, f.key, f.contentType, f.body = aws.ToString(in.Bucket), aws.ToString(in.Key), aws.ToString(in.ContentType), string(b)
	return &s3.PutObjectOutput{}, nil
}

type fakeSSM struct {
	values    map[string]string
	decrypted bool
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.decrypted = aws.ToBool(in.WithDecryption)
	v, ok := f.values[aws.ToString(in.Name)]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}, nil
}

func newController(t *testing.T, s3c *fakeS3, ssmc *fakeSSM) *awsctl.Controller {
	t.Helper()
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	ctl, err := awsctl.NewController(context.Background(),
		awsctl.WithS3Client(s3c),
		awsctl.WithSSMClient(ssmc),
		awsctl.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	return ctl
}

func TestController_GetSecret(t *testing.T) {
	testCases := []struct {
		Name        string
		Key         string
		Expected    string
		ExpectError bool
	}{
		{
			Name:     "found",
			Key:      "/iv-proxy/webhook-url",
			Expected: "https://chat.example.com/api/webhooks/1/token",
		},
		{
			Name:        "empty",
			Key:         "/iv-proxy/empty",
			ExpectError: true,
		},
		{
			Name:        "missing",
			Key:         "/iv-proxy/missing",
			ExpectError: true,
		},
	}

	ssmc := &fakeSSM{values: map[string]string{
		"/iv-proxy/webhook-url": "https://chat.example.com/api/webhooks/1/token",
		"/iv-proxy/empty":       "",
	}}
	ctl := newController(t, &fakeS3{}, ssmc)
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			v, err := ctl.GetSecret(context.Background(), tc.Key, true)
			if tc.ExpectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, v)
			assert.True(t, ssmc.decrypted)
		})
	}
}

func TestController_PutS3Object(t *testing.T) {
	s3c := &fakeS3{}
	ctl := newController(t, s3c, &fakeSSM{})

	require.NoError(t, ctl.PutS3Object(context.Background(), "req-1", "", []byte(`{}`)))
	assert.Equal(t, 0, s3c.calls)

	require.NoError(t, ctl.PutS3Object(context.Background(), "req-1", "archive", []byte(`{"a":1}`)))
	assert.Equal(t, "archive", s3c.bucket)
	assert.Equal(t, "2026-10-19T12:00:00Z.req-1.json", s3c.key)
	assert.Equal(t, "application/json", s3c.contentType)
	assert.Equal(t, `{"a":1}`, s3c.body)

	s3c.err = errors.New("AccessDenied")
	assert.Error(t, ctl.PutS3Object(context.Background(), "req-2", "archive", []byte(`{}`)))
}

func TestController_PutS3ObjectKey(t *testing.T) {
	testCases := []struct {
		Name        string
		ID          string
		ExpectedKey string
	}{
		{
			Name:        "uuid",
			ID:          "0b8e3c52-1f0a-4c1e-9a57-6f1d2b3c4d5e",
			ExpectedKey: "2026-10-19T12:00:00Z.0b8e3c52-1f0a-4c1e-9a57-6f1d2b3c4d5e.json",
		},
		{
			Name:        "slashes",
			ID:          "../other-prefix/evil",
			ExpectedKey: "2026-10-19T12:00:00Z...other-prefixevil.json",
		},
		{
			Name:        "only_disallowed",
			ID:          "///",
			ExpectedKey: "2026-10-19T12:00:00Z.record.json",
		},
		{
			Name:        "too_long",
			ID:          strings.Repeat("a", 100),
			ExpectedKey: "2026-10-19T12:00:00Z." + strings.Repeat("a", 64) + ".json",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			s3c := &fakeS3{}
			ctl := newController(t, s3c, &fakeSSM{})

			require.NoError(t, ctl.PutS3Object(context.Background(), tc.ID, "archive", []byte(`{}`)))
			assert.Equal(t, tc.ExpectedKey, s3c.key)
			assert.NotContains(t, s3c.key, "/")
		})
	}
}

func TestArchiver(t *testing.T) {
	s3c := &fakeS3{}
	ctl := newController(t, s3c, &fakeSSM{})

	_, err := awsctl.NewArchiver(ctl, "")
	assert.Error(t, err)

	a, err := awsctl.NewArchiver(ctl, "archive")
	require.NoError(t, err)
	require.NoError(t, a.Archive(context.Background(), "req-1", map[string]string{"content": "Bob said: Hi there"}))
	assert.JSONEq(t, `{"content":"Bob said: Hi there"}`, s3c.body)
}
