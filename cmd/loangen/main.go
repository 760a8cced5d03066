// loangen seeds the application store with a synthetic population, or keeps
// generating batches on an interval to simulate a live applicant stream. It
// can write to the store directly or submit through a running agent's API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"loan-agent/internal/api"
	"loan-agent/internal/gen"
	"loan-agent/internal/loan"
	"loan-agent/internal/storage"
)

func main() {
	var (
		dataPath = flag.String("data", "data", "data directory path (direct store mode)")
		apiURL   = flag.String("api-url", "", "agent API base URL; when set, submit via HTTP instead of writing the store")
		count    = flag.Int("count", 200, "number of applications to generate")
		interval = flag.Duration("interval", 0, "when set, keep generating batches of -batch every interval")
		batch    = flag.Int("batch", 10, "batch size in continuous mode")
		seed     = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	)
	flag.Parse()

	g := gen.New(*seed)

	var submit func(loan.Application) error
	if *apiURL != "" {
		client := api.NewClient(*apiURL, 10*time.Second)
		submit = func(app loan.Application) error {
			_, err := client.SubmitApplication(toRequest(app))
			return err
		}
		fmt.Printf("Submitting to agent API at %s\n", *apiURL)
	} else {
		store, err := storage.New(*dataPath)
		if err != nil {
			log.Fatalf("Failed to open storage: %v", err)
		}
		defer store.Close()
		submit = func(app loan.Application) error {
			_, err := store.SubmitApplication(app)
			return err
		}
		fmt.Printf("Writing directly to store at %s\n", *dataPath)
	}

	if *interval <= 0 {
		if err := generate(g, submit, *count); err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		fmt.Printf("✓ Generated %d applications\n", *count)
		return
	}

	fmt.Printf("Continuous mode: %d applications every %v\n", *batch, *interval)
	for {
		if err := generate(g, submit, *batch); err != nil {
			log.Printf("Batch failed: %v", err)
		} else {
			fmt.Printf("Generated batch of %d\n", *batch)
		}
		time.Sleep(*interval)
	}
}

func generate(g *gen.Generator, submit func(loan.Application) error, n int) error {
	for i := 0; i < n; i++ {
		if err := submit(g.Application()); err != nil {
			return fmt.Errorf("application %d: %w", i+1, err)
		}
	}
	return nil
}

func toRequest(app loan.Application) api.SubmitRequest {
	return api.SubmitRequest{
		RequestedAmount:     api.Decimal(app.RequestedAmount),
		AnnualIncome:        api.Decimal(app.AnnualIncome),
		CreditScore:         api.Decimal(app.CreditScore),
		ExistingDebt:        api.Decimal(app.ExistingDebt),
		DebtToIncomeRatio:   api.Decimal(app.DebtToIncomeRatio),
		CollateralValue:     api.Decimal(app.CollateralValue),
		AccountAgeDays:      api.Decimal(app.AccountAgeDays),
		AvgTransactionCount: api.Decimal(app.AvgTransactionCount),
		ProcessingPriority:  api.Decimal(app.ProcessingPriority),
		LoyaltyPoints:       api.Decimal(app.LoyaltyPoints),
	}
}
