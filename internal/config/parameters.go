// Package config provides a centralized entrypoint for the application parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"go.yaml.in/yaml/v3"
)

// Runtime modes.
const (
	ModeService = "service"
	ModeLambda  = "lambda"
)

var (
	// Global is a struct that contains the global configuration.
	Global global
	// Forward is the configuration of the caller-addressed route (?webhook=&postData=).
	Forward forward
	// Relay is the configuration of the configuration-addressed route (?value1=&value2=).
	Relay relay
	// Outbound is the configuration of the webhook client.
	Outbound outbound
	// Archive is the configuration of the S3 relay archive.
	Archive archive
	// Service is a struct that contains the configuration for the service mode.
	Service service
	// Lambda is a struct that contains the configuration for the lambda mode.
	Lambda lambda
)

type global struct {
	// Mode is the runtime mode of the application.
	Mode string `yaml:"mode,omitempty" default:"service"`
	// Logging is a struct that contains the logging configuration.
	Logging struct {
		// Verbosity is the verbosity level of the application. It represents slog levels.
		Verbosity int `yaml:"verbosity,omitempty"`
		// CallerTrace is a flag that enables the caller trace in the logger.
		CallerTrace bool `yaml:"callerTrace,omitempty"`
	} `yaml:"logging,omitempty"`
}

type forward struct {
	Enabled bool   `yaml:"enabled,omitempty" default:"true"`
	Path    string `yaml:"path,omitempty" default:"/"`
	// Policy is either "pass-through" or "strict".
	Policy         string `yaml:"policy,omitempty" default:"pass-through"`
	ExpectedStatus int    `yaml:"expectedStatus,omitempty" default:"204"`
}

type relay struct {
	Enabled bool   `yaml:"enabled,omitempty" default:"true"`
	Path    string `yaml:"path,omitempty" default:"/relay"`
	// WebhookURL is the fixed destination. It has no default.
	WebhookURL string `yaml:"webhookUrl,omitempty"`
	// WebhookURLSSMKey names an SSM parameter holding the destination, used when WebhookURL is empty.
	WebhookURLSSMKey string `yaml:"webhookUrlSsmKey,omitempty"`
	Policy           string `yaml:"policy,omitempty" default:"strict"`
	ExpectedStatus   int    `yaml:"expectedStatus,omitempty" default:"204"`
}

type outbound struct {
	// Timeout bounds each webhook call. Zero means no timeout beyond the transport's own.
	Timeout          time.Duration `yaml:"timeout,omitempty"`
	MaxResponseBytes int64         `yaml:"maxResponseBytes,omitempty"`
}

type archive struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	BucketName string `yaml:"bucketName,omitempty"`
}

type service struct {
	Addr        string        `yaml:"addr,omitempty"`
	Port        string        `yaml:"port,omitempty" default:"8080"`
	Timeout     time.Duration `yaml:"timeout,omitempty" default:"30s"`
	MetricsPath string        `yaml:"metricsPath,omitempty" default:"/metrics"`
}

type lambda struct {
	PayloadType string `yaml:"payloadType,omitempty" default:"api-gateway-v2"`
}

// SetDefaults sets the default values for the configuration.
func SetDefaults() error {
	return errors.Join(
		defaults.Set(&Global),
		defaults.Set(&Forward),
		defaults.Set(&Relay),
		defaults.Set(&Outbound),
		defaults.Set(&Archive),
		defaults.Set(&Service),
		defaults.Set(&Lambda),
	)
}

// LoadFromFile loads the configuration from a file.
func LoadFromFile(path string) error {
	if len(path) == 0 {
		return nil
	}
	fstat, err := os.Stat(path)
	if err != nil {
		return nil //nolint:nilerr // If the file does not exist, we ignore it.
	}
	if fstat.IsDir() {
		return fmt.Errorf("configuration file %s is a directory", path)
	}
	if !fstat.Mode().IsRegular() {
		return fmt.Errorf("configuration file %s is not a regular file", path)
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}
	type all struct {
		Global   global   `yaml:"global,omitempty"`
		Forward  forward  `yaml:"forward,omitempty"`
		Relay    relay    `yaml:"relay,omitempty"`
		Outbound outbound `yaml:"outbound,omitempty"`
		Archive  archive  `yaml:"archive,omitempty"`
		Service  service  `yaml:"service,omitempty"`
		Lambda   lambda   `yaml:"lambda,omitempty"`
	}
	var a all
	if err = yaml.Unmarshal(content, &a); err != nil {
		return fmt.Errorf("failed to unmarshal configuration file %s: %w", path, err)
	}
	Global = a.Global
	Forward = a.Forward
	Relay = a.Relay
	Outbound = a.Outbound
	Archive = a.Archive
	Service = a.Service
	Lambda = a.Lambda

	return nil
}

// Reset restores every section to its defaults, discarding loaded values.
func Reset() error {
	Global, Forward, Relay, Outbound, Archive, Service, Lambda = global{}, forward{}, relay{}, outbound{}, archive{}, service{}, lambda{}
	return SetDefaults()
}
