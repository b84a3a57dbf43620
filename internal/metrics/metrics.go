package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the quiz data layer.
type Metrics struct {
	Mutations      *prometheus.CounterVec
	Notifications  prometheus.Counter
	Bootstraps     *prometheus.CounterVec
	SyncWrites     *prometheus.CounterVec
	FeedClients    prometheus.Gauge
	HTTPRequests   *prometheus.CounterVec
	HTTPDurationMs *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codequiz",
				Subsystem: "store",
				Name:      "mutations_total",
				Help:      "Whole-collection writes by collection",
			},
			[]string{"collection"},
		),
		Notifications: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "codequiz",
				Subsystem: "bus",
				Name:      "notifications_total",
				Help:      "Change notifications fanned out to subscribers",
			},
		),
		Bootstraps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codequiz",
				Subsystem: "store",
				Name:      "bootstraps_total",
				Help:      "Bootstrap runs by data source",
			},
			[]string{"source"},
		),
		SyncWrites: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codequiz",
				Subsystem: "filesync",
				Name:      "writes_total",
				Help:      "External file writes by outcome",
			},
			[]string{"outcome"},
		),
		FeedClients: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "codequiz",
				Subsystem: "server",
				Name:      "feed_clients",
				Help:      "Connected websocket change-feed clients",
			},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codequiz",
				Subsystem: "server",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		HTTPDurationMs: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "codequiz",
				Subsystem: "server",
				Name:      "request_duration_ms",
				Help:      "HTTP request duration in milliseconds",
				Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000},
			},
			[]string{"route"},
		),
	}
}

// Nop returns collectors registered on a throwaway registry.
func Nop() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
