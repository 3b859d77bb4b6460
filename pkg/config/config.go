package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/ipagw/internal/bytesize"
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/gateway/api"
	"github.com/marmos91/ipagw/pkg/secretlink"
)

// EnvPrefix prefixes every environment override, e.g. IPAGW_LOGGING_LEVEL.
const EnvPrefix = "IPAGW"

// Config represents the ipagw configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (IPAGW_*, plus the legacy IPA_HOST, YOPASS
//     and YOPASS_URL)
//  2. Configuration file (YAML)
//  3. Default values
//
// A .env file in the working directory is read first. It only fills
// variables that are not already set.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	// Server configures the gateway HTTP server
	Server api.Config `mapstructure:"server" yaml:"server" json:"server"`

	// Session configures operator sessions
	Session SessionConfig `mapstructure:"session" yaml:"session" json:"session"`

	// Directory locates the FreeIPA server
	Directory directory.Config `mapstructure:"directory" yaml:"directory" json:"directory"`

	// SecretLink configures the yopass client used to share credentials
	SecretLink secretlink.Config `mapstructure:"secret_link" yaml:"secret_link" json:"secret_link"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level" json:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format" json:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output" json:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// Insecure controls whether to use a non-TLS connection
	// Default: true
	Insecure bool `mapstructure:"insecure" yaml:"insecure" json:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate" json:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling" json:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Endpoint is the Pyroscope server URL
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types" json:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`
}

// SessionConfig configures operator sessions.
type SessionConfig struct {
	// TTL is the fixed session lifetime. Sessions are not renewed on use.
	// Default: 60m
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0" yaml:"ttl" json:"ttl"`

	// CookieName is the name of the session cookie.
	// Default: ipa_session
	CookieName string `mapstructure:"cookie_name" validate:"required" yaml:"cookie_name" json:"cookie_name"`
}

// legacyEnv maps config keys to the environment names used by earlier
// deployments. The IPAGW_ name wins when both are set.
var legacyEnv = map[string]string{
	"directory.host":     "IPA_HOST",
	"secret_link.binary": "YOPASS",
	"secret_link.url":    "YOPASS_URL",
}

// dotEnvFile is read before the environment is consulted.
var dotEnvFile = ".env"

// Load loads configuration from file, environment, and defaults, then
// validates it. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load with a friendly error when an explicitly requested
// config file does not exist.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  ipagw config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// Warnings lists settings that are allowed but leave part of the gateway
// unusable.
func (c *Config) Warnings() []string {
	var warnings []string
	if strings.TrimSpace(c.Directory.Host) == "" {
		warnings = append(warnings, "directory.host is not set (IPA_HOST); every login will fail")
	}
	if c.Directory.InsecureSkipVerify {
		warnings = append(warnings, "directory.insecure_skip_verify is enabled; the FreeIPA certificate is not checked")
	}
	if !c.Server.CookieSecure {
		warnings = append(warnings, "server.cookie_secure is disabled; serve the gateway over HTTPS in production")
	}
	return warnings
}

// SaveConfig saves the configuration to the specified file path in YAML,
// preceded by a comment header on environment overrides.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// loadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// setupViper configures viper with defaults, environment variables and
// config file settings.
func setupViper(v *viper.Viper, configPath string) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		_ = v.BindEnv(key, envName(key), legacy)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// setDefaults registers every key with viper so that environment variables
// apply even when no config file mentions the key.
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()
	defaults := map[string]any{
		"logging.level":                     d.Logging.Level,
		"logging.format":                    d.Logging.Format,
		"logging.output":                    d.Logging.Output,
		"telemetry.enabled":                 d.Telemetry.Enabled,
		"telemetry.endpoint":                d.Telemetry.Endpoint,
		"telemetry.insecure":                d.Telemetry.Insecure,
		"telemetry.sample_rate":             d.Telemetry.SampleRate,
		"telemetry.profiling.enabled":       d.Telemetry.Profiling.Enabled,
		"telemetry.profiling.endpoint":      d.Telemetry.Profiling.Endpoint,
		"telemetry.profiling.profile_types": d.Telemetry.Profiling.ProfileTypes,
		"shutdown_timeout":                  d.ShutdownTimeout,
		"metrics.enabled":                   d.Metrics.Enabled,
		"metrics.port":                      d.Metrics.Port,
		"server.port":                       d.Server.Port,
		"server.read_timeout":               d.Server.ReadTimeout,
		"server.write_timeout":              d.Server.WriteTimeout,
		"server.idle_timeout":               d.Server.IdleTimeout,
		"server.max_upload_size":            d.Server.MaxUploadSize,
		"server.cookie_secure":              d.Server.CookieSecure,
		"session.ttl":                       d.Session.TTL,
		"session.cookie_name":               d.Session.CookieName,
		"directory.host":                    d.Directory.Host,
		"directory.insecure_skip_verify":    d.Directory.InsecureSkipVerify,
		"directory.ca_cert_file":            d.Directory.CACertFile,
		"directory.api_version":             d.Directory.APIVersion,
		"secret_link.binary":                d.SecretLink.Binary,
		"secret_link.url":                   d.SecretLink.URL,
		"secret_link.expiration":            d.SecretLink.Expiration,
		"secret_link.one_time":              *d.SecretLink.OneTime,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		byteSizeDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// byteSizeDecodeHook converts strings such as "10MiB" and plain numbers to
// bytesize.ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %v", v)
			}
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ipagw")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "ipagw")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

