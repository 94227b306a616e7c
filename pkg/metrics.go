package fadc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "fadc"

// Metrics exposes the acquisition counters.
type Metrics struct {
	Events       prometheus.Counter
	DecodeErrors prometheus.Counter
	BytesRead    prometheus.Counter
	EmptyPolls   prometheus.Counter
	EventRate    prometheus.Gauge
}

// NewMetrics registers the acquisition metrics on reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Events: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Total number of decoded events",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "decode_errors_total",
			Help:      "Total number of buffers abandoned on a decode failure",
		}),
		BytesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_read_total",
			Help:      "Total number of bytes read from the module",
		}),
		EmptyPolls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "polls_empty_total",
			Help:      "Total number of polls that found no data",
		}),
		EventRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "event_rate_hz",
			Help:      "Average event rate since the start of the run",
		}),
	}
}

func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
