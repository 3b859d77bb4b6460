package prometheus

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/ipagw/pkg/directory"
	"github.com/marmos91/ipagw/pkg/metrics"
)

type directoryMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	loginsTotal  *prometheus.CounterVec
}

// NewDirectoryMetrics returns Prometheus-backed directory metrics, or nil
// when metrics are disabled.
func NewDirectoryMetrics() directory.Metrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}

	return shared(reg, "directory", func() *directoryMetrics {
		f := promauto.With(reg)
		return &directoryMetrics{
			callsTotal: f.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metrics.Namespace,
					Subsystem: "directory",
					Name:      "calls_total",
					Help:      "FreeIPA JSON-RPC calls by method and outcome",
				},
				[]string{"method", "status", "code"},
			),
			callDuration: f.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: metrics.Namespace,
					Subsystem: "directory",
					Name:      "call_duration_seconds",
					Help:      "FreeIPA JSON-RPC call latency",
					Buckets:   durationBuckets,
				},
				[]string{"method"},
			),
			loginsTotal: f.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metrics.Namespace,
					Subsystem: "directory",
					Name:      "logins_total",
					Help:      "Operator password logins by outcome",
				},
				[]string{"status"},
			),
		}
	})
}

func (m *directoryMetrics) ObserveCall(method string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(method, status(err), errorCode(err)).Inc()
	m.callDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *directoryMetrics) RecordLogin(success bool) {
	if m == nil {
		return
	}
	if success {
		m.loginsTotal.WithLabelValues("success").Inc()
		return
	}
	m.loginsTotal.WithLabelValues("error").Inc()
}

// errorCode labels remote failures by their FreeIPA error name.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var remote *directory.RemoteError
	if errors.As(err, &remote) && remote.Name != "" {
		return remote.Name
	}
	switch {
	case errors.Is(err, directory.ErrClosed):
		return "closed"
	case errors.Is(err, directory.ErrAuthFailed):
		return "unauthorized"
	default:
		return "transport"
	}
}
