package metrics

import "loan-agent/internal/loan"

// Wrapper adapts Metrics to the small recorder interfaces consumed by the
// agent and API packages, so those packages never import Prometheus directly
// and tests can substitute a mock.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) DecisionRecorded(status loan.Status, fallback bool) {
	if w == nil || w.m == nil {
		return
	}
	w.m.DecisionsTotal.Inc()
	switch status {
	case loan.StatusApproved:
		w.m.ApprovalsTotal.Inc()
	case loan.StatusRejected:
		w.m.RejectionsTotal.Inc()
	}
	if fallback {
		w.m.FallbackDecisions.Inc()
	}
}

func (w *Wrapper) PredictionObserved(p float64) {
	if w == nil || w.m == nil {
		return
	}
	w.m.ModelPredictions.Inc()
	w.m.PredictionScores.Observe(p)
}

func (w *Wrapper) CycleCompleted(seconds float64) {
	if w == nil || w.m == nil {
		return
	}
	w.m.CyclesTotal.Inc()
	w.m.CycleDuration.Observe(seconds)
}

func (w *Wrapper) CycleFailed() {
	if w == nil || w.m == nil {
		return
	}
	w.m.CycleErrors.Inc()
}

func (w *Wrapper) PendingObserved(n int) {
	if w == nil || w.m == nil {
		return
	}
	w.m.PendingApplications.Set(float64(n))
}

func (w *Wrapper) TrainingCompleted(loss float64, samples int) {
	if w == nil || w.m == nil {
		return
	}
	w.m.TrainingLoss.Set(loss)
	w.m.TrainingSamples.Set(float64(samples))
}

func (w *Wrapper) ModelActive(active bool) {
	if w == nil || w.m == nil {
		return
	}
	if active {
		w.m.ModelLoaded.Set(1)
	} else {
		w.m.ModelLoaded.Set(0)
	}
}

func (w *Wrapper) ApplicationSubmitted() {
	if w == nil || w.m == nil {
		return
	}
	w.m.ApplicationsSubmitted.Inc()
}
