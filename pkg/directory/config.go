package directory

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Config holds the FreeIPA connection settings.
type Config struct {
	// Host is the FreeIPA server name, optionally with scheme and port
	// (e.g. "ipa.example.com" or "https://ipa.example.com:8443").
	Host string `mapstructure:"host" yaml:"host" json:"host,omitempty"`

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify" json:"insecure_skip_verify,omitempty"`

	// CACertFile is an optional PEM bundle used to verify the server,
	// typically /etc/ipa/ca.crt.
	CACertFile string `mapstructure:"ca_cert_file" yaml:"ca_cert_file,omitempty" json:"ca_cert_file,omitempty"`

	// APIVersion is sent as the "version" option of every call when set.
	APIVersion string `mapstructure:"api_version" yaml:"api_version,omitempty" json:"api_version,omitempty"`
}

// BaseURL returns the normalized https base URL of the server.
func (c Config) BaseURL() (string, error) {
	host := strings.TrimSpace(c.Host)
	if host == "" {
		return "", ErrNoHost
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid directory host %q: %w", c.Host, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid directory host %q", c.Host)
	}

	return u.Scheme + "://" + u.Host, nil
}

// TLSConfig builds the client TLS configuration.
func (c Config) TLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify, //nolint:gosec // opt-in for lab deployments
	}

	if c.CACertFile != "" {
		pem, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", c.CACertFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
