// README: Prometheus collectors registered on the default registry.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "entregas"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "quotes_total", Help: "Fee previews computed"},
		[]string{"mode", "source"},
	)
	QuoteFee = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "quote_fee",
		Help:      "Final fee of computed quotes",
		Buckets:   []float64{7, 10, 12.5, 15, 17.5, 20, 25, 30, 40},
	})
	SurgeApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "surge_applied_total", Help: "Surge rules applied to quotes"},
		[]string{"reason"},
	)

	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total", Help: "Geocode lookups by outcome"},
		[]string{"outcome"},
	)
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "Latency of external maps provider calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "realtime_clients", Help: "Connected websocket clients"})
	PositionUpdates = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "deliverer_position_updates_total", Help: "Deliverer position updates recorded"})
)
