// Package features converts raw financial records into the bounded numeric
// vectors consumed by the eligibility classifier.
package features

import "loan-agent/internal/loan"

// VectorSize is the classifier input width.
const VectorSize = 9

// Normalization caps. These are scaling configuration, not business rules:
// changing them retunes the classifier input space but leaves the rule
// evaluator untouched.
const (
	capIncome     = 3000000.0
	capScore      = 900.0
	capDebt       = 1000000.0
	capDTI        = 1.0
	capCollateral = 5000000.0
	capAccountAge = 5000.0
	capAvgTrans   = 100.0
	capPriority   = 10.0
	capLoyalty    = 5000.0
)

// Normalize maps an application onto a fixed-order vector with each component
// scaled by its cap and clamped to at most 1. Zero-valued (absent) fields
// normalize to 0. Negative inputs are not expected and not defended against.
func Normalize(app loan.Application) []float64 {
	return []float64{
		scale(app.AnnualIncome, capIncome),
		scale(float64(app.CreditScore), capScore),
		scale(app.ExistingDebt, capDebt),
		scale(app.DebtToIncomeRatio, capDTI),
		scale(app.CollateralValue, capCollateral),
		scale(float64(app.AccountAgeDays), capAccountAge),
		scale(app.AvgTransactionCount, capAvgTrans),
		scale(float64(app.ProcessingPriority), capPriority),
		scale(float64(app.LoyaltyPoints), capLoyalty),
	}
}

func scale(v, cap float64) float64 {
	n := v / cap
	if n > 1 {
		return 1
	}
	return n
}
