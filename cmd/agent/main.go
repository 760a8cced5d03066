package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loan-agent/internal/agent"
	"loan-agent/internal/api"
	"loan-agent/internal/cfg"
	"loan-agent/internal/eval"
	"loan-agent/internal/metrics"
	"loan-agent/internal/ml"
	"loan-agent/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs

	singleRun := flag.Bool("single-run", false, "process one batch and exit")
	evaluate := flag.Bool("evaluate", false, "print a model-vs-rules agreement report and exit")
	flag.Parse()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *singleRun {
		c.SingleShot = true
	}

	// No reachable storage at startup means no work has begun; abort outright.
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("storage unavailable")
	}
	defer store.Close()

	models, err := ml.NewModelStore(c.ModelDir)
	if err != nil {
		log.Fatal().Err(err).Msg("model store unavailable")
	}

	if *evaluate {
		if err := runEvaluation(store, models, c); err != nil {
			log.Fatal().Err(err).Msg("evaluation failed")
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	hub := api.NewHub()
	server := api.NewServer(store, mw, hub, c.ListenPort)
	startAPIServer(ctx, server, hub)

	model, err := agent.Bootstrap(store, models, agent.BootstrapConfig{
		ModelName:  c.ModelName,
		MinPending: c.MinBootstrapCount,
		Train: ml.TrainConfig{
			Epochs:       c.TrainEpochs,
			BatchSize:    c.TrainBatchSize,
			LearningRate: c.LearningRate,
			Seed:         time.Now().UnixNano(),
		},
	}, mw)
	if err != nil {
		// No partially trained model is ever persisted; run on rules alone.
		log.Error().Err(err).Msg("bootstrap failed, falling back to rule-based mode for this run")
		model = nil
	}

	var clf agent.Classifier
	if model != nil {
		clf = model
	}

	loop := agent.NewLoop(store, clf, c.PollInterval, c.SingleShot, mw, hub)

	go waitForShutdown(cancel)

	if err := loop.Run(ctx); err != nil {
		log.Error().Err(err).Msg("inference loop ended with error")
	}
	log.Info().Msg("shutting down")
}

// startAPIServer runs the HTTP API in the background and ties its lifetime
// to ctx.
func startAPIServer(ctx context.Context, server *api.Server, hub *api.Hub) {
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("api server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown api server")
		}
	}()
}

func waitForShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("shutdown signal received")
	cancel()
}

func runEvaluation(store *storage.Store, models *ml.ModelStore, c cfg.Settings) error {
	net, err := models.Load(c.ModelName)
	if err != nil {
		return fmt.Errorf("no trained model to evaluate: %w", err)
	}

	apps, err := store.Decided()
	if err != nil {
		return fmt.Errorf("load decided applications: %w", err)
	}

	report := eval.Run(apps, net)
	fmt.Println(report)
	return nil
}
