package config

import (
	"github.com/marmos91/ipagw/internal/logger"
	"github.com/marmos91/ipagw/pkg/metrics"
)

// MetricsResult holds what InitializeMetrics set up.
type MetricsResult struct {
	// Server serves /metrics, or is nil when metrics are disabled.
	Server *metrics.Server
}

// InitializeMetrics creates the Prometheus registry and the metrics server
// when metrics are enabled. Component constructors in pkg/metrics return
// nil until this has run.
func InitializeMetrics(cfg *Config) MetricsResult {
	if !cfg.Metrics.Enabled {
		metrics.Reset()
		return MetricsResult{}
	}

	metrics.InitRegistry()
	logger.Debug("Metrics registry initialized", "port", cfg.Metrics.Port)
	return MetricsResult{Server: metrics.NewServer(cfg.Metrics.Port)}
}
