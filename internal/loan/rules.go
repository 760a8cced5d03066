package loan

import (
	"fmt"
	"math"
	"strings"
)

// Underwriting thresholds. These are business rules, not tuning knobs: the
// bootstrap labels are generated from them, so changing them invalidates any
// previously trained model.
const (
	MinCreditScore  = 600
	MaxDebtRatio    = 0.50
	MinAnnualIncome = 250000.0

	maxCreditScore   = 900.0
	incomeMultiplier = 5.0
	collateralLTV    = 0.7
	subPrimeCutoff   = 700
	subPrimeHaircut  = 0.8
)

const approvedReason = "eligible based on credit score and income norms"

// Evaluate applies the deterministic underwriting rules to an application.
// It is a pure function: no I/O, no randomness, identical input always yields
// an identical decision. All gates are checked; every violated gate
// contributes its own reason, joined in evaluation order.
func Evaluate(app Application) Decision {
	var reasons []string

	if app.CreditScore < MinCreditScore {
		reasons = append(reasons, fmt.Sprintf("credit score %d below minimum %d", app.CreditScore, MinCreditScore))
	}
	if app.DebtToIncomeRatio > MaxDebtRatio {
		reasons = append(reasons, fmt.Sprintf("debt burden ratio %.1f%% exceeds 50%%", app.DebtToIncomeRatio*100))
	}
	if app.AnnualIncome < MinAnnualIncome {
		reasons = append(reasons, "annual income below minimum threshold")
	}

	if len(reasons) > 0 {
		d := Reject(strings.Join(reasons, "; "))
		d.ApplicationID = app.ID
		return d
	}

	capacity := app.AnnualIncome * incomeMultiplier
	if app.CollateralValue > 0 {
		capacity += app.CollateralValue * collateralLTV
	}

	risk := RiskLow
	if app.CreditScore < subPrimeCutoff {
		capacity *= subPrimeHaircut
		risk = RiskMedium
	}

	amount := round2(math.Min(app.RequestedAmount, capacity))

	// Not clamped: a DTI near or above 1 can push this below 0.
	eligibility := round2(float64(app.CreditScore) / maxCreditScore * (1 - app.DebtToIncomeRatio))

	d := Approve(eligibility, amount, risk, approvedReason)
	d.ApplicationID = app.ID
	return d
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
