package cmd

import (
	"github.com/SirCryptic/iv-proxy/internal/config"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func cmdLambda() *cobra.Command {
	cmd := &cobra.Command{
		Use: "lambda",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger = logger.With("mode", config.ModeLambda)

			rtm, err := setupRuntime(cmd.Context(), prometheus.DefaultRegisterer)
			if err != nil {
				return errors.Wrap(err, "failed to setup lambda")
			}

			logger.Info("lambda starting...")
			lambda.StartWithOptions(rtm.HandleEvent,
				lambda.WithContext(cmd.Context()))
			return nil
		},
	}

	bindEnvMap(cmd, lambdaEnvMapString)
	return cmd
}
