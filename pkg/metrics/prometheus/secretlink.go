package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/ipagw/pkg/metrics"
	"github.com/marmos91/ipagw/pkg/secretlink"
)

type secretLinkMetrics struct {
	publishTotal    *prometheus.CounterVec
	publishDuration prometheus.Histogram
}

// NewSecretLinkMetrics returns Prometheus-backed secret-link metrics, or
// nil when metrics are disabled.
func NewSecretLinkMetrics() secretlink.Metrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}

	return shared(reg, "secretlink", func() *secretLinkMetrics {
		f := promauto.With(reg)
		return &secretLinkMetrics{
			publishTotal: f.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metrics.Namespace,
					Subsystem: "secretlink",
					Name:      "publish_total",
					Help:      "Secret links requested from the yopass client by outcome",
				},
				[]string{"status"},
			),
			publishDuration: f.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: metrics.Namespace,
					Subsystem: "secretlink",
					Name:      "publish_duration_seconds",
					Help:      "Time to run the yopass client",
					Buckets:   durationBuckets,
				},
			),
		}
	})
}

func (m *secretLinkMetrics) ObservePublish(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(status(err)).Inc()
	m.publishDuration.Observe(duration.Seconds())
}
