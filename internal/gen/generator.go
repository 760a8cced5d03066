// Package gen produces synthetic loan applications for seeding and load
// simulation. The distributions mirror the production data simulator: income
// and credit score are conditioned on employment status, debt stays below
// 40% of income, and the noise fields are drawn independently of the signal.
package gen

import (
	"math"
	"math/rand"

	"loan-agent/internal/loan"
)

type employment int

const (
	salaried employment = iota
	selfEmployed
	unemployed
	retired
)

// Generator produces random applications from a seeded source, so a fixed
// seed reproduces the same population.
type Generator struct {
	rng *rand.Rand
}

func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Application draws one synthetic application. The ID is left empty for the
// store to assign.
func (g *Generator) Application() loan.Application {
	emp := employment(g.rng.Intn(4))

	var income float64
	var score int
	if emp == unemployed {
		income = g.uniform(0, 100000)
		score = g.intBetween(300, 650)
	} else {
		income = g.uniform(300000, 3000000)
		score = g.intBetween(550, 850)
	}

	debt := g.uniform(0, income*0.4)
	dti := 0.0
	if income > 0 {
		dti = debt / income
	}

	collateral := g.uniform(0, 5000000)
	maxReasonable := income*4 + collateral*0.7
	requested := g.uniform(50000, math.Max(100000, maxReasonable))

	return loan.Application{
		RequestedAmount:     round2(requested),
		AnnualIncome:        round2(income),
		CreditScore:         score,
		ExistingDebt:        round2(debt),
		DebtToIncomeRatio:   round2(dti),
		CollateralValue:     round2(collateral),
		AccountAgeDays:      g.intBetween(100, 5000),
		AvgTransactionCount: float64(g.intBetween(5, 100)),
		ProcessingPriority:  g.intBetween(1, 10),
		LoyaltyPoints:       g.intBetween(0, 5000),
		Status:              loan.StatusPending,
	}
}

// Batch draws n applications.
func (g *Generator) Batch(n int) []loan.Application {
	apps := make([]loan.Application, n)
	for i := range apps {
		apps[i] = g.Application()
	}
	return apps
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) intBetween(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
