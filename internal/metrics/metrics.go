// Package metrics exposes Prometheus metrics for notification handling and
// the size of the mode store.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the Prometheus registry used by this package
	Registry = prometheus.NewRegistry()

	// EventsTotal counts handled notifications by event type and outcome
	EventsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "usermoded_events_total",
			Help: "Total number of IRC notifications handled, by event and result",
		},
		[]string{"network", "event", "result"},
	)
)

// Sizer reports how many entries a store holds
type Sizer interface {
	Len() int
}

// RegisterStore adds a gauge reporting the number of tracked entries in s.
// It may be called once per registry.
func RegisterStore(reg prometheus.Registerer, s Sizer) error {
	return reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "usermoded_tracked_entries",
			Help: "Number of (connection, channel, nick) entries with active modes",
		},
		func() float64 { return float64(s.Len()) },
	))
}

// Handler serves the metrics in Registry
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
