package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/ipagw/pkg/metrics"
	"github.com/marmos91/ipagw/pkg/provisioning"
)

type provisioningMetrics struct {
	itemsTotal *prometheus.CounterVec
	runsTotal  *prometheus.CounterVec
}

// NewProvisioningMetrics returns Prometheus-backed bulk metrics, or nil
// when metrics are disabled.
func NewProvisioningMetrics() provisioning.Metrics {
	reg := metrics.GetRegistry()
	if reg == nil {
		return nil
	}

	return shared(reg, "provisioning", func() *provisioningMetrics {
		f := promauto.With(reg)
		return &provisioningMetrics{
			itemsTotal: f.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metrics.Namespace,
					Subsystem: "bulk",
					Name:      "items_total",
					Help:      "Bulk items processed by operation and outcome kind",
				},
				[]string{"operation", "outcome"},
			),
			runsTotal: f.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metrics.Namespace,
					Subsystem: "bulk",
					Name:      "runs_total",
					Help:      "Bulk operations started",
				},
				[]string{"operation"},
			),
		}
	})
}

func (m *provisioningMetrics) RecordRun(operation string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(operation).Inc()
}

func (m *provisioningMetrics) RecordItem(operation, outcome string) {
	if m == nil {
		return
	}
	m.itemsTotal.WithLabelValues(operation, outcome).Inc()
}
