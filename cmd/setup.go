package cmd

import (
	"context"
	"log/slog"

	"github.com/SirCryptic/iv-proxy/internal/config"
	awsctl "github.com/SirCryptic/iv-proxy/internal/controllers/aws"
	"github.com/SirCryptic/iv-proxy/internal/controllers/webhook"
	"github.com/SirCryptic/iv-proxy/internal/observability"
	"github.com/SirCryptic/iv-proxy/internal/relay"
	"github.com/SirCryptic/iv-proxy/internal/runtime"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// setupRuntime wires the relay routes from the loaded configuration.
func setupRuntime(ctx context.Context, reg prometheus.Registerer, awsOpts ...awsctl.Option) (*runtime.Runtime, error) {
	if config.Forward.Enabled && config.Relay.Enabled && config.Forward.Path == config.Relay.Path {
		return nil, errors.Errorf("forward and relay routes share the path %s", config.Forward.Path)
	}

	dispatcher := webhook.NewController(
		webhook.WithLogger(logger.With("component", "webhook-controller")),
		webhook.WithTimeout(config.Outbound.Timeout),
		webhook.WithMaxResponseBytes(config.Outbound.MaxResponseBytes))

	var awsController *awsctl.Controller
	if config.Archive.Enabled || needsRelaySecret() {
		var err error
		logger.Debug("creating AWS controller...")
		awsController, err = awsctl.NewController(ctx,
			append([]awsctl.Option{awsctl.WithLogger(logger.With("component", "aws-controller"))}, awsOpts...)...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create AWS controller")
		}
	}

	common := []relay.Option{relay.WithMetrics(observability.NewMetrics(reg))}
	if config.Archive.Enabled {
		archiver, err := awsctl.NewArchiver(awsController, config.Archive.BucketName)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create archiver")
		}
		common = append(common, relay.WithArchiver(archiver))
	}

	opts := []runtime.Option{
		runtime.WithLogger(logger.With("component", "runtime")),
		runtime.WithLambdaPayloadType(config.Lambda.PayloadType),
	}
	routes := 0

	if config.Forward.Enabled {
		h, err := newRelayHandler(relay.NewForward(), config.Forward.Policy, config.Forward.ExpectedStatus, dispatcher, common)
		if err != nil {
			return nil, err
		}
		opts = append(opts, runtime.WithRoute(config.Forward.Path, h))
		routes++
		logger.Info("forward route enabled", slog.String("path", config.Forward.Path), slog.String("policy", config.Forward.Policy))
	}

	if config.Relay.Enabled {
		webhookURL, err := relayWebhookURL(ctx, awsController)
		if err != nil {
			return nil, err
		}
		if webhookURL == "" {
			logger.Warn("relay route disabled: no webhook URL configured", slog.String("path", config.Relay.Path))
		} else {
			shape, err := relay.NewRelay(webhookURL)
			if err != nil {
				return nil, err
			}
			h, err := newRelayHandler(shape, config.Relay.Policy, config.Relay.ExpectedStatus, dispatcher, common)
			if err != nil {
				return nil, err
			}
			opts = append(opts, runtime.WithRoute(config.Relay.Path, h))
			routes++
			logger.Info("relay route enabled", slog.String("path", config.Relay.Path), slog.String("policy", config.Relay.Policy))
		}
	}

	if routes == 0 {
		return nil, errors.New("no relay routes enabled")
	}
	return runtime.NewRuntime(opts...), nil
}

func newRelayHandler(shape relay.Shape, policyName string, expectedStatus int, d relay.Dispatcher, common []relay.Option) (*relay.Handler, error) {
	policy, err := relay.ParsePolicy(policyName, expectedStatus)
	if err != nil {
		return nil, err
	}
	opts := append([]relay.Option{
		relay.WithLogger(logger.With("component", "relay-handler")),
		relay.WithRoute(shape.Name()),
		relay.WithPolicy(policy),
	}, common...)
	return relay.NewHandler(shape, d, opts...)
}

func needsRelaySecret() bool {
	return config.Relay.Enabled && config.Relay.WebhookURL == "" && config.Relay.WebhookURLSSMKey != ""
}

// relayWebhookURL resolves the relay destination once, at startup.
func relayWebhookURL(ctx context.Context, awsController *awsctl.Controller) (string, error) {
	if config.Relay.WebhookURL != "" || !needsRelaySecret() {
		return config.Relay.WebhookURL, nil
	}
	logger.Debug("fetching relay webhook URL from SSM...", slog.String("key", config.Relay.WebhookURLSSMKey))
	url, err := awsController.GetSecret(ctx, config.Relay.WebhookURLSSMKey, true)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve relay webhook URL")
	}
	return url, nil
}
