package agent

import (
	"context"
	"fmt"
	"math"
	"time"

	"loan-agent/internal/features"
	"loan-agent/internal/loan"
	"loan-agent/internal/metrics"
	"loan-agent/internal/storage"

	"github.com/rs/zerolog/log"
)

// Publisher receives every decision the loop persists, for live feeds.
type Publisher interface {
	PublishDecision(loan.Decision)
}

// Loop polls the pending backlog and decides each application, either with
// the rules alone (fallback mode, clf == nil) or with the hybrid
// classifier+rules path. The mode is fixed for the life of the loop.
type Loop struct {
	store      *storage.Store
	clf        Classifier
	interval   time.Duration
	singleShot bool
	mw         *metrics.Wrapper
	pub        Publisher
}

// NewLoop builds an inference loop. A nil classifier selects fallback mode;
// pub may be nil.
func NewLoop(store *storage.Store, clf Classifier, interval time.Duration, singleShot bool, mw *metrics.Wrapper, pub Publisher) *Loop {
	return &Loop{
		store:      store,
		clf:        clf,
		interval:   interval,
		singleShot: singleShot,
		mw:         mw,
		pub:        pub,
	}
}

// Run executes the loop until ctx is canceled, or for exactly one cycle in
// single-shot mode. Cycle errors are logged and never terminate the
// perpetual loop.
func (l *Loop) Run(ctx context.Context) error {
	mode := "hybrid"
	if l.clf == nil {
		mode = "fallback"
	}
	l.mw.ModelActive(l.clf != nil)
	log.Info().
		Str("mode", mode).
		Dur("interval", l.interval).
		Bool("single_shot", l.singleShot).
		Msg("inference loop starting")

	l.cycle()
	if l.singleShot {
		return nil
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("inference loop stopping")
			return nil
		case <-ticker.C:
			l.cycle()
		}
	}
}

func (l *Loop) cycle() {
	start := time.Now()
	processed, err := l.runCycle()
	if err != nil {
		log.Error().Err(err).Msg("cycle failed, waiting for next tick")
		l.mw.CycleFailed()
		return
	}

	l.mw.CycleCompleted(time.Since(start).Seconds())
	if processed > 0 {
		log.Info().Int("applications", processed).Msg("batch processed")
	}
}

func (l *Loop) runCycle() (int, error) {
	apps, err := l.store.FetchPending()
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}
	l.mw.PendingObserved(len(apps))
	if len(apps) == 0 {
		return 0, nil
	}

	batch := l.store.NewBatch()
	decisions := make([]loan.Decision, 0, len(apps))

	for _, app := range apps {
		dec := l.decide(app)
		batch.SetStatus(app.ID, dec.Status)
		batch.InsertDecision(dec)
		decisions = append(decisions, dec)
	}

	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("commit cycle: %w", err)
	}

	for _, dec := range decisions {
		l.mw.DecisionRecorded(dec.Status, l.clf == nil)
		if l.pub != nil {
			l.pub.PublishDecision(dec)
		}
	}
	return len(decisions), nil
}

func (l *Loop) decide(app loan.Application) loan.Decision {
	if l.clf == nil {
		dec := loan.Evaluate(app)
		dec.Source = loan.SourceRules
		return dec
	}
	return l.decideHybrid(app)
}

// decideHybrid lets the classifier make the accept/reject call while the
// rules keep governing the amount. The stored score on approval is the raw
// model probability, unrounded.
func (l *Loop) decideHybrid(app loan.Application) loan.Decision {
	p := l.clf.Predict(features.Normalize(app))
	l.mw.PredictionObserved(p)

	rule := loan.Evaluate(app)
	confidence := int(math.Round(p * 100))

	var dec loan.Decision
	if p > 0.5 {
		risk := loan.RiskMedium
		if p > 0.8 {
			risk = loan.RiskLow
		}
		reason := fmt.Sprintf("meets eligibility criteria (model confidence: %d%%)", confidence)
		dec = loan.Approve(p, rule.RecommendedAmount, risk, reason)
	} else {
		cause := rule.Reason
		if rule.Approved() {
			// The two authorities disagree: the rules found the applicant
			// eligible but the model did not.
			cause = "model overrode rule eligibility on elevated risk factors"
		}
		dec = loan.Reject(fmt.Sprintf("%s (model confidence: %d%%)", cause, 100-confidence))
	}

	dec.ApplicationID = app.ID
	dec.Source = loan.SourceModel
	return dec
}
