// Package metrics exposes Prometheus instrumentation for the estimator
// pipeline and the WebSocket fan-out.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rppg_samples_ingested_total",
			Help: "Intensity samples appended to a stream window",
		},
		[]string{"stream"},
	)

	EstimateOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rppg_estimate_outcomes_total",
			Help: "Estimator calls by outcome",
		},
		[]string{"stream", "outcome"},
	)

	EstimateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rppg_estimate_duration_seconds",
			Help:    "Wall time of one estimator call",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		},
		[]string{"stream"},
	)

	HeartRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rppg_heart_rate_bpm",
			Help: "Last estimated heart rate",
		},
		[]string{"stream"},
	)

	HRV = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rppg_hrv_sdnn_ms",
			Help: "Last estimated HRV (SDNN)",
		},
		[]string{"stream"},
	)

	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rppg_ws_messages_total",
			Help: "Messages broadcast to WebSocket clients",
		},
		[]string{"kind"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rppg_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	PublishResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rppg_publish_total",
			Help: "NATS publishes by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rppg_ws_clients",
			Help: "Connected WebSocket clients",
		},
	)
)

// RecordEstimate records one estimator call. hr and hrv are only used when
// outcome is "estimated".
func RecordEstimate(stream, outcome string, took time.Duration, hr, hrv float64) {
	EstimateOutcomes.WithLabelValues(stream, outcome).Inc()
	EstimateDuration.WithLabelValues(stream).Observe(took.Seconds())
	if outcome == "estimated" {
		HeartRate.WithLabelValues(stream).Set(hr)
		HRV.WithLabelValues(stream).Set(hrv)
	}
}

// ResetStream clears the gauges of a stream that was reset.
func ResetStream(stream string) {
	HeartRate.DeleteLabelValues(stream)
	HRV.DeleteLabelValues(stream)
}
