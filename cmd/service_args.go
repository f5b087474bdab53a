package cmd

import (
	"time"

	"github.com/SirCryptic/iv-proxy/internal/config"
	"github.com/SirCryptic/iv-proxy/internal/helpers"
)

var svcEnvMapString = map[*string]boundEnvVar[string]{
	&config.Service.Addr: {
		Name:        "service-host-addr",
		Description: "The address to serve the service on (default all interfaces in dual-stack mode)",
		Short:       helpers.Ptr("H"),
	},
	&config.Service.Port: {
		Name:        "service-host-port",
		Description: "The port to serve the service on",
		Short:       helpers.Ptr("p"),
		Env:         helpers.Ptr("PORT"),
	},
	&config.Service.MetricsPath: {
		Name:        "service-metrics-path",
		Description: "The path serving Prometheus metrics",
	},
}

var svcEnvMapDuration = map[*time.Duration]boundEnvVar[time.Duration]{
	&config.Service.Timeout: {
		Name:        "service-io-timeout",
		Description: "The timeout for inbound I/O operations",
		Short:       helpers.Ptr("t"),
	},
}
