package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(ocrProviderCallsTotal, ocrProviderLatencyMs) }

var (
	ocrProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_provider_calls_total",
			Help: "OCR provider calls by provider and outcome.",
		},
		[]string{"provider", "outcome"}, // outcome: success | failure
	)

	ocrProviderLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ocr_provider_latency_ms",
			Help:    "OCR provider call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
		},
		[]string{"provider", "outcome"},
	)
)

func ObserveProviderCall(provider, outcome string, latencyMs int64) {
	ocrProviderCallsTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
	ocrProviderLatencyMs.WithLabelValues(norm(provider), norm(outcome)).Observe(float64(latencyMs))
}
