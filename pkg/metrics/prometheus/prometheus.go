// Package prometheus implements the component metrics interfaces with
// Prometheus collectors. Importing it for side effects registers the
// constructors with pkg/metrics:
//
//	import _ "github.com/marmos91/ipagw/pkg/metrics/prometheus"
package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/ipagw/pkg/metrics"
)

func init() {
	metrics.RegisterDirectoryMetricsConstructor(NewDirectoryMetrics)
	metrics.RegisterSecretLinkMetricsConstructor(NewSecretLinkMetrics)
	metrics.RegisterProvisioningMetricsConstructor(NewProvisioningMetrics)
	metrics.RegisterSessionMetricsConstructor(NewSessionMetrics)
}

// Collectors can only be registered once per registry, so each set is
// built once and shared by later callers.
var (
	cacheMu sync.Mutex
	cache   = make(map[*prometheus.Registry]map[string]any)
)

func shared[T any](reg *prometheus.Registry, name string, build func() T) T {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	sets, ok := cache[reg]
	if !ok {
		sets = make(map[string]any)
		cache[reg] = sets
	}
	if v, ok := sets[name]; ok {
		return v.(T)
	}
	v := build()
	sets[name] = v
	return v
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// durationBuckets covers a local process spawn up to a slow remote call.
var durationBuckets = []float64{
	0.005, // 5ms
	0.025, // 25ms
	0.1,   // 100ms
	0.25,  // 250ms
	0.5,   // 500ms
	1,     // 1s
	2.5,   // 2.5s
	5,     // 5s
	10,    // 10s
	30,    // 30s
}
