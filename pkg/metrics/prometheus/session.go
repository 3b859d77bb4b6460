package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/ipagw/pkg/metrics"
	"github.com/marmos91/ipagw/pkg/session"
)

type sessionMetrics struct {
	active     prometheus.Gauge
	endedTotal *prometheus.CounterVec
}

// NewSessionMetrics returns Prometheus-backed session metrics, or nil when
// metrics are disabled.
func NewSessionMetrics() session.Metrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}

	return shared(reg, "session", func() *sessionMetrics {
		f := promauto.With(reg)
		return &sessionMetrics{
			active: f.NewGauge(prometheus.GaugeOpts{
				Namespace: metrics.Namespace,
				Subsystem: "session",
				Name:      "active",
				Help:      "Sessions currently held in memory",
			}),
			endedTotal: f.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metrics.Namespace,
					Subsystem: "session",
					Name:      "ended_total",
					Help:      "Sessions ended by reason",
				},
				[]string{"reason"},
			),
		}
	})
}

func (m *sessionMetrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.active.Set(float64(n))
}

func (m *sessionMetrics) RecordEnded(reason string) {
	if m == nil {
		return
	}
	m.endedTotal.WithLabelValues(reason).Inc()
}
