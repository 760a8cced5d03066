// Package metrics provides Prometheus metrics collection for the loan
// underwriting agent. It defines all decision, training, and system metrics
// exposed via the /metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the underwriting agent.
type Metrics struct {
	// Decision metrics
	DecisionsTotal    prometheus.Counter   // Total decisions persisted
	ApprovalsTotal    prometheus.Counter   // Decisions with Approved status
	RejectionsTotal   prometheus.Counter   // Decisions with Rejected status
	FallbackDecisions prometheus.Counter   // Decisions made by the rule fallback path
	ModelPredictions  prometheus.Counter   // Classifier forward passes
	PredictionScores  prometheus.Histogram // Distribution of classifier probabilities

	// Loop metrics
	CyclesTotal         prometheus.Counter   // Inference cycles completed
	CycleErrors         prometheus.Counter   // Cycles that failed and were skipped
	CycleDuration       prometheus.Histogram // Wall time per cycle in seconds
	PendingApplications prometheus.Gauge     // Backlog size at the last fetch

	// Training metrics
	TrainingLoss    prometheus.Gauge // Final average epoch loss of the last training run
	TrainingSamples prometheus.Gauge // Examples used by the last bootstrap
	ModelLoaded     prometheus.Gauge // 1 when running in hybrid mode, 0 in fallback

	// API metrics
	ApplicationsSubmitted prometheus.Counter // Applications accepted via the HTTP API
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		DecisionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "decisions_total",
			Help: "Total number of underwriting decisions persisted",
		}),
		ApprovalsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "approvals_total",
			Help: "Total number of approved applications",
		}),
		RejectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rejections_total",
			Help: "Total number of rejected applications",
		}),
		FallbackDecisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "fallback_decisions_total",
			Help: "Decisions produced by the rule-based fallback path",
		}),
		ModelPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_predictions_total",
			Help: "Classifier forward passes performed",
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of classifier eligibility probabilities",
			Buckets: prometheus.LinearBuckets(0.0, 0.1, 11),
		}),
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cycles_total",
			Help: "Inference loop cycles completed",
		}),
		CycleErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "cycle_errors_total",
			Help: "Inference loop cycles aborted by an error",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cycle_duration_seconds",
			Help:    "Wall time per inference cycle in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		}),
		PendingApplications: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pending_applications",
			Help: "Pending backlog size observed at the last fetch",
		}),
		TrainingLoss: factory.NewGauge(prometheus.GaugeOpts{
			Name: "training_loss",
			Help: "Final average epoch loss of the last training run",
		}),
		TrainingSamples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "training_samples",
			Help: "Number of examples used by the last bootstrap training run",
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "1 when a trained classifier is active, 0 in fallback mode",
		}),
		ApplicationsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Applications accepted through the HTTP API",
		}),
	}
}
