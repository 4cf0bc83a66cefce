package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "store",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "store",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	prometheus.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// ConsumerMetrics tracks event consumption outcomes per event type.
type ConsumerMetrics struct {
	Processed  *prometheus.CounterVec
	Duplicates *prometheus.CounterVec
	Failures   *prometheus.CounterVec
}

func NewConsumerMetrics(service string) *ConsumerMetrics {
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "store",
		Subsystem: service,
		Name:      "events_processed_total",
		Help:      "Events applied for the first time.",
	}, []string{"type"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "store",
		Subsystem: service,
		Name:      "events_duplicate_total",
		Help:      "Events skipped by the idempotency ledger.",
	}, []string{"type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "store",
		Subsystem: service,
		Name:      "events_failed_total",
		Help:      "Events whose business handling failed.",
	}, []string{"type"})

	prometheus.MustRegister(processed, duplicates, failures)
	return &ConsumerMetrics{Processed: processed, Duplicates: duplicates, Failures: failures}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
