// Package loan defines the underwriting domain model and the deterministic
// rule evaluator used both as the training teacher and as the fallback
// decision path when no classifier is available.
package loan

import "time"

// Status is the terminal outcome of an underwriting evaluation. Pending is a
// storage-side default for freshly submitted applications; the evaluator
// itself never emits it.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// RiskTier buckets an applicant's risk profile.
type RiskTier string

const (
	RiskLow    RiskTier = "Low"
	RiskMedium RiskTier = "Medium"
	RiskHigh   RiskTier = "High"
)

// Decision source tags distinguish which authority produced a stored decision.
const (
	SourceBootstrap = "bootstrap-truth" // rule teacher labeling the initial backlog
	SourceRules     = "rules"           // fallback rule-only mode
	SourceModel     = "model"           // hybrid classifier path
)

// Application is a loan application joined with the applicant's financial
// profile, populated once at the storage boundary. AccountAgeDays,
// AvgTransactionCount, ProcessingPriority and LoyaltyPoints are collected and
// fed to the classifier but never consulted by the rules; ProcessingPriority
// in particular is not used for fetch ordering either.
type Application struct {
	ID                  string    `json:"id"`
	RequestedAmount     float64   `json:"requested_amount"`
	AnnualIncome        float64   `json:"annual_income"`
	CreditScore         int       `json:"credit_score"` // 300-900, 0 means unknown
	ExistingDebt        float64   `json:"existing_debt"`
	DebtToIncomeRatio   float64   `json:"debt_to_income_ratio"`
	CollateralValue     float64   `json:"collateral_value"`
	AccountAgeDays      int       `json:"account_age_days"`
	AvgTransactionCount float64   `json:"avg_transaction_count"`
	ProcessingPriority  int       `json:"processing_priority"`
	LoyaltyPoints       int       `json:"loyalty_points"`
	Status              Status    `json:"status"`
	SubmittedAt         time.Time `json:"submitted_at"`
}

// Decision is a fully populated underwriting outcome. Use Approve or Reject
// to construct one; they enforce that rejected decisions carry a zero score
// and a zero recommended amount.
type Decision struct {
	ApplicationID     string    `json:"application_id"`
	Status            Status    `json:"status"`
	EligibilityScore  float64   `json:"eligibility_score"`
	RecommendedAmount float64   `json:"recommended_amount"`
	RiskTier          RiskTier  `json:"risk_tier"`
	Reason            string    `json:"reason"`
	Source            string    `json:"source"`
	CreatedAt         time.Time `json:"created_at"`
}

// Approve builds an approved decision.
func Approve(score, amount float64, risk RiskTier, reason string) Decision {
	return Decision{
		Status:            StatusApproved,
		EligibilityScore:  score,
		RecommendedAmount: amount,
		RiskTier:          risk,
		Reason:            reason,
	}
}

// Reject builds a rejected decision. Score and amount are always zero and the
// risk tier is High.
func Reject(reason string) Decision {
	return Decision{
		Status:   StatusRejected,
		RiskTier: RiskHigh,
		Reason:   reason,
	}
}

// Approved reports whether the decision accepted the application.
func (d Decision) Approved() bool { return d.Status == StatusApproved }
