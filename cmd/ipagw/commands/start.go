package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/internal/telemetry"
	"github.com/marmos91/ipagw/pkg/config"
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/gateway/api"
	"github.com/marmos91/ipagw/pkg/metrics"
	"github.com/marmos91/ipagw/pkg/provisioning"
	"github.com/marmos91/ipagw/pkg/secretlink"
	"github.com/marmos91/ipagw/pkg/session"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/ipagw/pkg/metrics/prometheus"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway",
	Long: `Start the ipagw HTTP gateway in the foreground.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/ipagw/config.yaml. Without a file the
gateway runs on defaults plus the environment (IPA_HOST, YOPASS_URL and
IPAGW_* variables, also read from ./.env).

Examples:
  # Start with the default config
  ipagw start

  # Start with custom config file
  ipagw start --config /etc/ipagw/config.yaml

  # Start with environment variable overrides
  IPAGW_LOGGING_LEVEL=DEBUG IPA_HOST=ipa.example.com ipagw start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Starting ipagw", "version", Version, "commit", Commit)
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	for _, w := range cfg.Warnings() {
		logger.Warn("Configuration warning", "warning", w)
	}
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Metrics must be initialized before the component constructors below
	// ask pkg/metrics for their sinks.
	metricsResult := config.InitializeMetrics(cfg)
	metricsDone := make(chan error, 1)
	if metricsResult.Server != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			metricsDone <- metricsResult.Server.Start(ctx)
		}()
	} else {
		logger.Info("Metrics collection disabled")
		close(metricsDone)
	}

	connector, err := directory.NewConnector(cfg.Directory, directory.WithMetrics(metrics.NewDirectoryMetrics()))
	if err != nil {
		return fmt.Errorf("failed to configure directory connector: %w", err)
	}
	logger.Info("Directory configured", "host", connector.Host(), "api_version", cfg.Directory.APIVersion)

	publisher := secretlink.NewPublisher(cfg.SecretLink, secretlink.WithMetrics(metrics.NewSecretLinkMetrics()))
	if err := publisher.Available(); err != nil {
		logger.Warn("Secret links unavailable", "binary", cfg.SecretLink.Binary, "error", err)
	}

	sessions := session.NewStore(cfg.Session.TTL, session.WithMetrics(metrics.NewSessionMetrics()))
	engine := provisioning.NewEngine(publisher, provisioning.WithMetrics(metrics.NewProvisioningMetrics()))

	apiServer := api.NewServer(cfg.Server, api.Deps{
		Sessions:      sessions,
		Directory:     connector,
		DirectoryHost: connector.Host(),
		Engine:        engine,
		Publisher:     publisher,
		CookieName:    cfg.Session.CookieName,
	})

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx, cfg.ShutdownTimeout)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.", "port", apiServer.Port())

	var serveErr error
	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()
		serveErr = <-serverDone

	case serveErr = <-serverDone:
		signal.Stop(sigChan)
		cancel()
	}

	// Log out every operator still holding a session.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer closeCancel()
	sessions.Close(closeCtx)

	if err := <-metricsDone; err != nil {
		logger.Error("Metrics server shutdown error", "error", err)
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logger.Error("Server error", "error", serveErr)
		return serveErr
	}
	logger.Info("Server stopped gracefully")
	return nil
}
