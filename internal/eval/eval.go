// Package eval replays decided applications through both the trained
// classifier and the rule evaluator and reports how often the two
// authorities agree. It is an offline diagnostic, run on demand.
package eval

import (
	"fmt"

	"loan-agent/internal/features"
	"loan-agent/internal/loan"
)

// Classifier is the inference surface the report needs.
type Classifier interface {
	Predict(features []float64) float64
}

// Report is the model-vs-rules confusion summary.
type Report struct {
	Total            int     `json:"total"`
	BothApprove      int     `json:"both_approve"`
	BothReject       int     `json:"both_reject"`
	ModelOnlyApprove int     `json:"model_only_approve"`
	RulesOnlyApprove int     `json:"rules_only_approve"`
	AgreementRate    float64 `json:"agreement_rate"`     // percent
	ModelApprovalPct float64 `json:"model_approval_pct"` // percent
	RulesApprovalPct float64 `json:"rules_approval_pct"` // percent
}

// Run evaluates every application with both authorities. The hybrid approval
// threshold (p > 0.5) matches the inference loop.
func Run(apps []loan.Application, clf Classifier) Report {
	var r Report
	r.Total = len(apps)

	for _, app := range apps {
		modelApproves := clf.Predict(features.Normalize(app)) > 0.5
		rulesApprove := loan.Evaluate(app).Approved()

		switch {
		case modelApproves && rulesApprove:
			r.BothApprove++
		case !modelApproves && !rulesApprove:
			r.BothReject++
		case modelApproves:
			r.ModelOnlyApprove++
		default:
			r.RulesOnlyApprove++
		}
	}

	if r.Total > 0 {
		total := float64(r.Total)
		r.AgreementRate = float64(r.BothApprove+r.BothReject) / total * 100
		r.ModelApprovalPct = float64(r.BothApprove+r.ModelOnlyApprove) / total * 100
		r.RulesApprovalPct = float64(r.BothApprove+r.RulesOnlyApprove) / total * 100
	}
	return r
}

// String renders the report for terminal output.
func (r Report) String() string {
	return fmt.Sprintf(
		"applications: %d\nagreement: %.1f%%\nmodel approval: %.1f%%  rules approval: %.1f%%\n"+
			"both approve: %d  both reject: %d  model-only approve: %d  rules-only approve: %d",
		r.Total, r.AgreementRate, r.ModelApprovalPct, r.RulesApprovalPct,
		r.BothApprove, r.BothReject, r.ModelOnlyApprove, r.RulesOnlyApprove,
	)
}
