// Package cmd provides the entrypoint for the iv-proxy cli.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/SirCryptic/iv-proxy/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilePath string
	logger         *slog.Logger
)

type boundEnvVar[T argType] struct {
	Name, Description string
	Env, Short        *string
	// Count registers an int as a repeatable counter flag (-vvv).
	Count  bool
	Hidden bool
}

// New returns the root command for iv-proxy.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iv-proxy",
		Short: "Relay GET requests to chat webhooks",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			config.Global.Mode = strings.TrimSpace(config.Global.Mode)
			logger = newLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch config.Global.Mode {
			case config.ModeService:
				return cmdService().RunE(cmd, args)
			case config.ModeLambda:
				return cmdLambda().RunE(cmd, args)
			default:
				return fmt.Errorf("invalid mode: %s", config.Global.Mode)
			}
		},
		SilenceUsage: true,
	}

	// Root command flags
	configFilePath = defaultConfigFilePath()
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", configFilePath, "[CONFIG_FILE] path to the configuration file")

	// Configuration loading & defaults
	if err := errors.Join(
		config.LoadFromFile(configFilePath),
		config.SetDefaults(),
	); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdLambda(),
		cmdService(),
	)

	return cmd
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: config.Global.Logging.CallerTrace,
		Level:     slog.LevelWarn - slog.Level(config.Global.Logging.Verbosity*4),
	})).With("mode", config.Global.Mode)
}

// defaultConfigFilePath is resolved before flag parsing, so the file can seed flag defaults.
func defaultConfigFilePath() string {
	if p, found := os.LookupEnv("CONFIG_FILE"); found {
		return p
	}
	return "config.yaml"
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString)
	bindEnvMap(cmd, envMapBool)
	bindEnvMap(cmd, envMapInt)
	bindEnvMap(cmd, envMapInt64)
	bindEnvMap(cmd, envMapDuration)
}
