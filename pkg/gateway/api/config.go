package api

import (
	"time"

	"github.com/marmos91/ipagw/internal/bytesize"
)

// Config configures the gateway HTTP server.
type Config struct {
	// Port is the HTTP listen port.
	// Default: 8000
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`

	// ReadTimeout bounds reading a whole request, uploads included.
	// Default: 60s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`

	// WriteTimeout bounds writing a response. Bulk operations run inside
	// this window, so it is generous.
	// Default: 15m
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`

	// MaxUploadSize caps multipart workbook uploads. Accepts sizes such as
	// "10MiB" or "512K".
	// Default: 10MiB
	MaxUploadSize bytesize.ByteSize `mapstructure:"max_upload_size" validate:"omitempty,gt=0" yaml:"max_upload_size" json:"max_upload_size"`

	// CookieSecure sets the Secure attribute on the session cookie. Enable
	// it whenever the gateway is served over HTTPS.
	CookieSecure bool `mapstructure:"cookie_secure" yaml:"cookie_secure" json:"cookie_secure"`
}

// Defaults for Config.
const (
	DefaultPort          = 8000
	DefaultReadTimeout   = 60 * time.Second
	DefaultWriteTimeout  = 15 * time.Minute
	DefaultIdleTimeout   = 60 * time.Second
	DefaultMaxUploadSize = 10 * bytesize.MiB
)

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
}
