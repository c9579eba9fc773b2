package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ConversionRequestsTotal prometheus.Counter
	ConversionsByVia        *prometheus.CounterVec
	UpstreamFetchesTotal    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		ConversionRequestsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "conversion_requests_total",
				Help: "Total number of currency conversion requests",
			},
		),

		ConversionsByVia: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conversions_by_via_total",
				Help: "Successful conversions by provider combination",
			},
			[]string{"via"},
		),

		UpstreamFetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_fetches_total",
				Help: "Outbound fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
	}
}
