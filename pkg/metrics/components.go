package metrics

import (
	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/provisioning"
	"github.com/marmos91/ipagw/pkg/secretlink"
	"github.com/marmos91/ipagw/pkg/session"
)

// The Prometheus constructors are registered by pkg/metrics/prometheus.
// The indirection keeps this package free of an import cycle.
var (
	newDirectoryMetrics    func() directory.Metrics
	newSecretLinkMetrics   func() secretlink.Metrics
	newProvisioningMetrics func() provisioning.Metrics
	newSessionMetrics      func() session.Metrics
)

// RegisterDirectoryMetricsConstructor registers the directory metrics constructor.
func RegisterDirectoryMetricsConstructor(fn func() directory.Metrics) {
	newDirectoryMetrics = fn
}

// RegisterSecretLinkMetricsConstructor registers the secret-link metrics constructor.
func RegisterSecretLinkMetricsConstructor(fn func() secretlink.Metrics) {
	newSecretLinkMetrics = fn
}

// RegisterProvisioningMetricsConstructor registers the provisioning metrics constructor.
func RegisterProvisioningMetricsConstructor(fn func() provisioning.Metrics) {
	newProvisioningMetrics = fn
}

// RegisterSessionMetricsConstructor registers the session metrics constructor.
func RegisterSessionMetricsConstructor(fn func() session.Metrics) {
	newSessionMetrics = fn
}

// NewDirectoryMetrics returns directory call metrics, or nil when metrics
// are disabled.
func NewDirectoryMetrics() directory.Metrics {
	if !IsEnabled() || newDirectoryMetrics == nil {
		return nil
	}
	return newDirectoryMetrics()
}

// NewSecretLinkMetrics returns secret-link metrics, or nil when disabled.
func NewSecretLinkMetrics() secretlink.Metrics {
	if !IsEnabled() || newSecretLinkMetrics == nil {
		return nil
	}
	return newSecretLinkMetrics()
}

// NewProvisioningMetrics returns bulk provisioning metrics, or nil when
// disabled.
func NewProvisioningMetrics() provisioning.Metrics {
	if !IsEnabled() || newProvisioningMetrics == nil {
		return nil
	}
	return newProvisioningMetrics()
}

// NewSessionMetrics returns session store metrics, or nil when disabled.
func NewSessionMetrics() session.Metrics {
	if !IsEnabled() || newSessionMetrics == nil {
		return nil
	}
	return newSessionMetrics()
}
