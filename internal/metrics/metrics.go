package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful predictions.
	OutcomeSuccess = "success"
	// OutcomeError labels failed predictions (validation or pipeline issues).
	OutcomeError = "error"
)

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yield_engine",
			Name:      "predictions_total",
			Help:      "Total number of predictions handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	predictionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "yield_engine",
			Name:      "prediction_seconds",
			Help:      "End-to-end prediction latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 10},
		},
	)

	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "yield_engine",
			Name:      "stage_seconds",
			Help:      "Per-stage pipeline latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"stage"},
	)

	dataTierTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yield_engine",
			Name:      "data_tier_total",
			Help:      "Predictions served per acquisition tier.",
		},
		[]string{"tier"},
	)

	modelProvenanceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yield_engine",
			Name:      "model_provenance_total",
			Help:      "Predictions served per model provenance.",
		},
		[]string{"provenance"},
	)
)

// Register attaches yield-engine collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		predictionsTotal,
		predictionDurationSeconds,
		stageDurationSeconds,
		dataTierTotal,
		modelProvenanceTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePrediction records an end-to-end duration and outcome label.
func ObservePrediction(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	predictionsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	predictionDurationSeconds.Observe(duration.Seconds())
}

// ObserveStage records one pipeline stage duration.
func ObserveStage(stage string, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveFallbacks records the tier and provenance a prediction was served with.
func ObserveFallbacks(tier, provenance string) {
	dataTierTotal.WithLabelValues(tier).Inc()
	modelProvenanceTotal.WithLabelValues(provenance).Inc()
}
