package config

import (
	"strings"
	"time"

	"github.com/marmos91/ipagw/internal/telemetry"
	"github.com/marmos91/ipagw/pkg/gateway/api"
	"github.com/marmos91/ipagw/pkg/secretlink"
	"github.com/marmos91/ipagw/pkg/session"
)

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "ipa_session"

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.Server.ApplyDefaults()
	applySessionDefaults(&cfg.Session)
	applySecretLinkDefaults(&cfg.SecretLink)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = append([]string(nil), telemetry.DefaultProfileTypes...)
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets the metrics port; metrics stay opt-in.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.TTL == 0 {
		cfg.TTL = session.DefaultTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
}

// applySecretLinkDefaults fills the yopass invocation. The service URL has
// no default and must be configured.
func applySecretLinkDefaults(cfg *secretlink.Config) {
	if cfg.Binary == "" {
		cfg.Binary = secretlink.DefaultBinary
	}
	if cfg.Expiration == "" {
		cfg.Expiration = secretlink.DefaultExpiration
	}
	if cfg.OneTime == nil {
		oneTime := true
		cfg.OneTime = &oneTime
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{Insecure: true},
		Server:    api.Config{},
	}
	ApplyDefaults(cfg)
	return cfg
}
