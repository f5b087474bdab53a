package cmd

import (
	"time"

	"github.com/SirCryptic/iv-proxy/internal/config"
	"github.com/SirCryptic/iv-proxy/internal/helpers"
)

var envMapString = map[*string]boundEnvVar[string]{
	&config.Global.Mode: {
		Name:        "mode",
		Description: "The application runtime mode. Possible values are 'service' and 'lambda'",
		Short:       helpers.Ptr("m"),
	},
	&config.Forward.Path: {
		Name:        "forward-path",
		Description: "The path serving ?webhook=<url>&postData=<text> requests",
	},
	&config.Forward.Policy: {
		Name:        "forward-policy",
		Description: "Result translation for the forward route. Supported values are 'pass-through' and 'strict'",
	},
	&config.Relay.Path: {
		Name:        "relay-path",
		Description: "The path serving ?value1=<name>&value2=<text> requests",
	},
	&config.Relay.WebhookURL: {
		Name:        "relay-webhook-url",
		Description: "The webhook URL the relay route posts to",
		Env:         helpers.Ptr("WEBHOOK_URL"),
	},
	&config.Relay.WebhookURLSSMKey: {
		Name:        "relay-webhook-url-ssm-key",
		Description: "The SSM parameter holding the relay webhook URL, used when no URL is given",
	},
	&config.Relay.Policy: {
		Name:        "relay-policy",
		Description: "Result translation for the relay route. Supported values are 'pass-through' and 'strict'",
	},
	&config.Archive.BucketName: {
		Name:        "archive-bucket",
		Description: "The S3 bucket to archive relayed messages to",
		Env:         helpers.Ptr("ARCHIVE_S3_BUCKET"),
	},
}

var envMapBool = map[*bool]boundEnvVar[bool]{
	&config.Global.Logging.CallerTrace: {
		Name:        "verbosity-caller-trace",
		Description: "Enable caller trace in logs",
		Short:       helpers.Ptr("V"),
	},
	&config.Forward.Enabled: {
		Name:        "forward",
		Description: "Enable the forward route",
	},
	&config.Relay.Enabled: {
		Name:        "relay",
		Description: "Enable the relay route",
	},
	&config.Archive.Enabled: {
		Name:        "archive",
		Description: "Enable S3 archiving of relayed messages",
		Env:         helpers.Ptr("ARCHIVE_S3_UPLOAD"),
	},
}

var envMapInt = map[*int]boundEnvVar[int]{
	&config.Global.Logging.Verbosity: {
		Name:        "verbosity",
		Description: "Increase logger verbosity (default WarnLevel)",
		Short:       helpers.Ptr("v"),
		Count:       true,
	},
	&config.Forward.ExpectedStatus: {
		Name:        "forward-expected-status",
		Description: "The upstream status accepted as success by the strict policy on the forward route",
	},
	&config.Relay.ExpectedStatus: {
		Name:        "relay-expected-status",
		Description: "The upstream status accepted as success by the strict policy on the relay route",
	},
}

var envMapInt64 = map[*int64]boundEnvVar[int64]{
	&config.Outbound.MaxResponseBytes: {
		Name:        "outbound-max-response-bytes",
		Description: "The maximum upstream response size in bytes; larger responses fail with 500 (0 for unlimited)",
	},
}

var envMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Outbound.Timeout: {
		Name:        "outbound-timeout",
		Description: "The timeout for each webhook call (0 leaves the HTTP client default)",
	},
}
