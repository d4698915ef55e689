package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the framing counters. A nil *Metrics is valid and records
// nothing, so packages can take one without forcing callers to build a
// registry.
type Metrics struct {
	Composites        *prometheus.CounterVec
	CompositeDuration *prometheus.HistogramVec
	Exports           *prometheus.CounterVec
	Shares            *prometheus.CounterVec
	Skipped           *prometheus.CounterVec
}

// InitializeMetrics registers the framer metrics on registry with constLabels
// attached to each.
func InitializeMetrics(registry prometheus.Registerer, constLabels prometheus.Labels) *Metrics {
	metrics := &Metrics{
		Composites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "framer_composites_total",
			Help:        "Number of framed images composited",
			ConstLabels: constLabels,
		}, []string{"preset"}),
		CompositeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "framer_composite_duration_seconds",
			Help:        "Time spent compositing, including waiting for decode",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"preset"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "framer_exports_total",
			Help:        "Number of encoded downloads",
			ConstLabels: constLabels,
		}, []string{"preset", "format"}),
		Shares: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "framer_shares_total",
			Help:        "Number of share attempts by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "framer_skipped_total",
			Help:        "Operations that were no-ops because an image or crop was missing",
			ConstLabels: constLabels,
		}, []string{"reason"}),
	}

	registry.MustRegister(metrics.Composites)
	registry.MustRegister(metrics.CompositeDuration)
	registry.MustRegister(metrics.Exports)
	registry.MustRegister(metrics.Shares)
	registry.MustRegister(metrics.Skipped)

	return metrics
}

// ObserveComposite counts one composite for preset and records how long it took.
func (m *Metrics) ObserveComposite(preset string, d time.Duration) {
	if m == nil {
		return
	}
	m.Composites.WithLabelValues(preset).Inc()
	m.CompositeDuration.WithLabelValues(preset).Observe(d.Seconds())
}

// ObserveExport counts one encoded artifact.
func (m *Metrics) ObserveExport(preset, format string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(preset, format).Inc()
}

// ObserveShare counts a share attempt by result: ok, error or unsupported.
func (m *Metrics) ObserveShare(result string) {
	if m == nil {
		return
	}
	m.Shares.WithLabelValues(result).Inc()
}

// ObserveSkipped counts a request that had nothing to act on.
func (m *Metrics) ObserveSkipped(reason string) {
	if m == nil {
		return
	}
	m.Skipped.WithLabelValues(reason).Inc()
}

// Handler exposes registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
