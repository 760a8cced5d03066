// Package agent wires the rule evaluator, feature normalizer, and classifier
// into the two run-time phases of the underwriting service: a one-time
// bootstrap at startup and the perpetual (or single-shot) inference loop.
package agent

import (
	"fmt"

	"loan-agent/internal/features"
	"loan-agent/internal/loan"
	"loan-agent/internal/metrics"
	"loan-agent/internal/ml"
	"loan-agent/internal/storage"

	"github.com/rs/zerolog/log"
)

// Classifier is the read-only inference surface of a trained model. The loop
// never retrains it, so implementations need no internal locking.
type Classifier interface {
	Predict(features []float64) float64
}

// BootstrapConfig controls the startup training procedure.
type BootstrapConfig struct {
	ModelName  string
	MinPending int // backlog size below which no model is trained
	Train      ml.TrainConfig
}

// Bootstrap runs once at startup, before the inference loop.
//
// If a model is persisted under cfg.ModelName it is loaded and returned.
// Otherwise, when the pending backlog is large enough, every pending
// application is labeled by the rule evaluator, drained to its teacher
// status with a bootstrap-truth decision, and the classifier is trained on
// the labeled set and persisted. A nil model with a nil error means "not
// enough data": the caller must run in rule-only fallback mode.
//
// The backlog drain commits before training starts: a training failure
// leaves the backlog consumed but persists no model, and the error propagates
// so the caller falls back to rules for the run.
func Bootstrap(store *storage.Store, models *ml.ModelStore, cfg BootstrapConfig, mw *metrics.Wrapper) (*ml.Network, error) {
	if models.Exists(cfg.ModelName) {
		net, err := models.Load(cfg.ModelName)
		if err != nil {
			return nil, fmt.Errorf("load persisted model: %w", err)
		}
		return net, nil
	}

	pending, err := store.CountPending()
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	if pending < cfg.MinPending {
		log.Info().
			Int("pending", pending).
			Int("required", cfg.MinPending).
			Msg("not enough backlog to bootstrap, running in rule-based fallback mode")
		return nil, nil
	}

	log.Info().Int("pending", pending).Msg("bootstrapping model from pending backlog")

	apps, err := store.FetchPending()
	if err != nil {
		return nil, fmt.Errorf("fetch pending: %w", err)
	}

	examples := make([]ml.Example, 0, len(apps))
	batch := store.NewBatch()

	for _, app := range apps {
		// The rules ignore the noise fields, so the label is clean; the
		// model sees signal and noise and has to learn the difference.
		teacher := loan.Evaluate(app)

		label := 0.0
		if teacher.Approved() {
			label = 1.0
		}
		examples = append(examples, ml.Example{
			Features: features.Normalize(app),
			Label:    label,
		})

		teacher.Source = loan.SourceBootstrap
		teacher.Reason += " (bootstrapped label)"
		batch.SetStatus(app.ID, teacher.Status)
		batch.InsertDecision(teacher)
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("drain backlog: %w", err)
	}

	log.Info().Int("examples", len(examples)).Msg("backlog labeled, training classifier")

	net, err := ml.Train(examples, cfg.Train)
	if err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}
	mw.TrainingCompleted(net.FinalLoss, len(examples))

	if err := models.Save(net, cfg.ModelName); err != nil {
		return nil, fmt.Errorf("persist model: %w", err)
	}

	return net, nil
}
