package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SirCryptic/iv-proxy/internal/config"
	"github.com/SirCryptic/iv-proxy/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func cmdService() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"s", "serve", "standalone", "server"},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			logger = logger.With("mode", config.ModeService)
			logger.Info("Spawning...")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Debug("Creating runtime...")
			rtm, err := setupRuntime(ctx, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}

			logger.Debug("Creating HTTP server...")
			health := observability.NewHealthServer()
			h := newServiceMux(rtm, health)

			s := &http.Server{
				Handler:      h,
				Addr:         net.JoinHostPort(config.Service.Addr, config.Service.Port),
				WriteTimeout: config.Service.Timeout,
				ReadTimeout:  config.Service.Timeout,
				IdleTimeout:  config.Service.Timeout,
			}
			return serve(ctx, s, health)
		},
	}

	bindEnvMap(cmd, svcEnvMapString)
	bindEnvMap(cmd, svcEnvMapDuration)
	return cmd
}

func newServiceMux(rtm http.Handler, health *observability.HealthServer) *http.ServeMux {
	h := http.NewServeMux()
	health.Register(h)
	h.Handle(config.Service.MetricsPath, promhttp.Handler())
	h.Handle("/", otelhttp.NewHandler(rtm, "relay"))
	return h
}

func serve(ctx context.Context, s *http.Server, health *observability.HealthServer) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	health.SetReady(true)
	logger.Info("Serving...", "address", ln.Addr().String(), "timeout", config.Service.Timeout.String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("Shutting down...")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if sErr := s.Shutdown(shutdownCtx); sErr != nil {
			logger.Warn("graceful shutdown failed", slog.Any("error", sErr))
		}
		err = <-errCh
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
