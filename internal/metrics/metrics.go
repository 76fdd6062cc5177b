// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Screening outcomes recorded on the screenings_total counter.
const (
	OutcomeDecided               = "decided"
	OutcomeDefaultedMissingModel = "defaulted_missing_model"
	OutcomeDefaultedError        = "defaulted_error"
)

var (
	// HTTPRequestDuration is a histogram for HTTP request latencies
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latency (seconds) by path and status code.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"path", "code"},
	)

	// PreprocessLatencySeconds is a histogram for image preprocessing latency
	PreprocessLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "preprocess_latency_seconds",
			Help:    "Histogram of image decode/resize/normalize latency (seconds).",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// InferenceLatencySeconds is a histogram for inference-only latency
	InferenceLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of inference latency (seconds) excluding preprocessing.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// ScreeningsTotal counts screening results by outcome
	ScreeningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenings_total",
			Help: "Total screening results by outcome (decided, defaulted_missing_model, defaulted_error).",
		},
		[]string{"outcome"},
	)

	// DefaultPredictionsTotal counts results served from the cautious default
	DefaultPredictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "default_predictions_total",
			Help: "Total screening results served from the cautious default instead of real inference.",
		},
	)

	// HealthStatus is a gauge indicating the health status of the service
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_status",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordHTTPRequest records the latency of an HTTP request
func RecordHTTPRequest(path, code string, seconds float64) {
	HTTPRequestDuration.WithLabelValues(path, code).Observe(seconds)
}

// RecordPreprocessLatency records the latency of the preprocessing stage
func RecordPreprocessLatency(seconds float64) {
	PreprocessLatencySeconds.Observe(seconds)
}

// RecordInferenceLatency records the latency of an inference call
func RecordInferenceLatency(seconds float64) {
	InferenceLatencySeconds.Observe(seconds)
}

// RecordScreening records a screening outcome
func RecordScreening(outcome string) {
	ScreeningsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeDecided {
		DefaultPredictionsTotal.Inc()
	}
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
