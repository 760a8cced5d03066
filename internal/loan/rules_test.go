package loan

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func eligibleApp() Application {
	return Application{
		ID:                "A1",
		RequestedAmount:   1000000,
		AnnualIncome:      3000000,
		CreditScore:       750,
		DebtToIncomeRatio: 0.2,
	}
}

func TestEvaluate_Pure(t *testing.T) {
	app := eligibleApp()
	app.CollateralValue = 500000
	app.LoyaltyPoints = 4200

	first := Evaluate(app)
	second := Evaluate(app)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Evaluate is not pure: %+v != %+v", first, second)
	}
}

func TestEvaluate_ApprovedEndToEnd(t *testing.T) {
	dec := Evaluate(eligibleApp())

	if dec.Status != StatusApproved {
		t.Fatalf("Expected Approved, got %s (%s)", dec.Status, dec.Reason)
	}
	if dec.RiskTier != RiskLow {
		t.Errorf("Expected Low risk, got %s", dec.RiskTier)
	}
	// capacity = 3,000,000 x 5 = 15,000,000, so the full request is granted
	if dec.RecommendedAmount != 1000000.00 {
		t.Errorf("Expected recommended amount 1000000.00, got %f", dec.RecommendedAmount)
	}
	// (750/900) x (1-0.2) = 0.6667, rounded to 0.67
	if dec.EligibilityScore != 0.67 {
		t.Errorf("Expected eligibility 0.67, got %f", dec.EligibilityScore)
	}
}

func TestEvaluate_CreditScoreBoundary(t *testing.T) {
	app := eligibleApp()

	app.CreditScore = 600
	if dec := Evaluate(app); dec.Status != StatusApproved {
		t.Errorf("Score 600 must not trigger the gate, got %s (%s)", dec.Status, dec.Reason)
	}

	app.CreditScore = 599
	dec := Evaluate(app)
	if dec.Status != StatusRejected {
		t.Fatalf("Score 599 must be rejected, got %s", dec.Status)
	}
	if !strings.Contains(dec.Reason, "below minimum 600") {
		t.Errorf("Expected score reason, got %q", dec.Reason)
	}
}

func TestEvaluate_IncomeBoundary(t *testing.T) {
	app := eligibleApp()

	app.AnnualIncome = 250000
	if dec := Evaluate(app); dec.Status != StatusApproved {
		t.Errorf("Income 250000 must not trigger the gate, got %s (%s)", dec.Status, dec.Reason)
	}

	app.AnnualIncome = 249999
	dec := Evaluate(app)
	if dec.Status != StatusRejected {
		t.Fatalf("Income 249999 must be rejected, got %s", dec.Status)
	}
	if !strings.Contains(dec.Reason, "annual income below minimum threshold") {
		t.Errorf("Expected income reason, got %q", dec.Reason)
	}
}

func TestEvaluate_DebtRatioGate(t *testing.T) {
	app := Application{
		RequestedAmount:   500000,
		AnnualIncome:      5000000,
		CreditScore:       800,
		DebtToIncomeRatio: 0.6,
	}

	dec := Evaluate(app)
	if dec.Status != StatusRejected {
		t.Fatalf("DTI 0.6 must be rejected, got %s", dec.Status)
	}
	if !strings.Contains(dec.Reason, "50%") {
		t.Errorf("Expected threshold in reason, got %q", dec.Reason)
	}
	if !strings.Contains(dec.Reason, "60.0%") {
		t.Errorf("Expected actual percentage with one decimal, got %q", dec.Reason)
	}
}

func TestEvaluate_AllGatesContribute(t *testing.T) {
	app := Application{
		RequestedAmount:   100000,
		AnnualIncome:      100000,
		CreditScore:       500,
		DebtToIncomeRatio: 0.8,
	}

	dec := Evaluate(app)
	if dec.Status != StatusRejected {
		t.Fatalf("Expected rejection, got %s", dec.Status)
	}

	parts := strings.Split(dec.Reason, "; ")
	if len(parts) != 3 {
		t.Fatalf("Expected 3 joined reasons, got %d: %q", len(parts), dec.Reason)
	}
	// Reasons appear in gate evaluation order
	if !strings.Contains(parts[0], "credit score") {
		t.Errorf("First reason should be the score gate, got %q", parts[0])
	}
	if !strings.Contains(parts[1], "debt burden") {
		t.Errorf("Second reason should be the debt gate, got %q", parts[1])
	}
	if !strings.Contains(parts[2], "annual income") {
		t.Errorf("Third reason should be the income gate, got %q", parts[2])
	}
}

func TestEvaluate_RejectedZeros(t *testing.T) {
	app := eligibleApp()
	app.CreditScore = 550

	dec := Evaluate(app)
	if dec.Status != StatusRejected {
		t.Fatalf("Expected rejection, got %s", dec.Status)
	}
	if dec.EligibilityScore != 0.0 {
		t.Errorf("Rejected score must be 0, got %f", dec.EligibilityScore)
	}
	if dec.RecommendedAmount != 0.0 {
		t.Errorf("Rejected amount must be 0, got %f", dec.RecommendedAmount)
	}
	if dec.RiskTier != RiskHigh {
		t.Errorf("Rejected risk must be High, got %s", dec.RiskTier)
	}
}

func TestEvaluate_SubPrimeHaircut(t *testing.T) {
	app := Application{
		RequestedAmount: 10000000,
		AnnualIncome:    250000,
		CreditScore:     650,
	}

	dec := Evaluate(app)
	if dec.Status != StatusApproved {
		t.Fatalf("Expected approval, got %s (%s)", dec.Status, dec.Reason)
	}
	if dec.RiskTier != RiskMedium {
		t.Errorf("Score below 700 must be Medium risk, got %s", dec.RiskTier)
	}
	// capacity = 250,000 x 5 x 0.8 = 1,000,000
	if dec.RecommendedAmount != 1000000.00 {
		t.Errorf("Expected haircut capacity 1000000.00, got %f", dec.RecommendedAmount)
	}
}

func TestEvaluate_CollateralRaisesCapacity(t *testing.T) {
	app := Application{
		RequestedAmount: 10000000,
		AnnualIncome:    1000000,
		CreditScore:     720,
		CollateralValue: 1000000,
	}

	dec := Evaluate(app)
	// capacity = 1,000,000 x 5 + 1,000,000 x 0.7 = 5,700,000
	if dec.RecommendedAmount != 5700000.00 {
		t.Errorf("Expected capacity 5700000.00, got %f", dec.RecommendedAmount)
	}
}

func TestEvaluate_AmountNeverExceedsRequested(t *testing.T) {
	requests := []float64{50000, 333333.33, 1000000, 99999999}
	for _, req := range requests {
		app := eligibleApp()
		app.RequestedAmount = req
		dec := Evaluate(app)
		if !dec.Approved() {
			t.Fatalf("Expected approval for request %f", req)
		}
		if dec.RecommendedAmount > app.RequestedAmount {
			t.Errorf("Recommended %f exceeds requested %f", dec.RecommendedAmount, req)
		}
	}
}

func TestEvaluate_EligibilityNotClamped(t *testing.T) {
	// Out-of-domain credit scores are passed through: the score formula is
	// deliberately not clamped to [0,1].
	app := eligibleApp()
	app.CreditScore = 950
	app.DebtToIncomeRatio = 0

	dec := Evaluate(app)
	want := math.Round(950.0/900.0*100) / 100
	if dec.EligibilityScore != want {
		t.Errorf("Expected unclamped score %f, got %f", want, dec.EligibilityScore)
	}
	if dec.EligibilityScore <= 1 {
		t.Errorf("Expected score above 1 for out-of-domain input, got %f", dec.EligibilityScore)
	}
}

func TestEvaluate_ZeroValueRecord(t *testing.T) {
	// Absent fields coerce to zero, which fails every gate without errors.
	dec := Evaluate(Application{ID: "empty"})
	if dec.Status != StatusRejected {
		t.Fatalf("Empty record must be rejected, got %s", dec.Status)
	}
	if dec.ApplicationID != "empty" {
		t.Errorf("Decision must carry the application ID, got %q", dec.ApplicationID)
	}
}

func TestEvaluate_NoiseFieldsIgnored(t *testing.T) {
	base := Evaluate(eligibleApp())

	noisy := eligibleApp()
	noisy.AccountAgeDays = 4999
	noisy.AvgTransactionCount = 99
	noisy.ProcessingPriority = 10
	noisy.LoyaltyPoints = 5000
	noisy.ExistingDebt = 900000

	dec := Evaluate(noisy)
	if dec.Status != base.Status || dec.EligibilityScore != base.EligibilityScore ||
		dec.RecommendedAmount != base.RecommendedAmount || dec.RiskTier != base.RiskTier {
		t.Errorf("Noise fields must not affect the decision: %+v vs %+v", dec, base)
	}
}
