package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pipelab/stallmeter/internal/api/ws"
	"github.com/pipelab/stallmeter/internal/infrastructure/config"
	"github.com/pipelab/stallmeter/internal/infrastructure/monitoring"
	"github.com/pipelab/stallmeter/internal/logging"
	"github.com/pipelab/stallmeter/internal/pipeline"
	"github.com/pipelab/stallmeter/internal/server"
	"github.com/pipelab/stallmeter/internal/shared/id"
)

func main() {
	// Parse flags; unset flags fall back to env/defaults
	port := flag.String("port", "", "Server port")
	produceRate := flag.Float64("rate", 0, "Producer elements per second")
	flushInterval := flag.Duration("flush", 0, "Stall flush interval")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *produceRate > 0 {
		cfg.Pipeline.ProduceRate = *produceRate
	}
	if *flushInterval > 0 {
		cfg.Report.FlushInterval = *flushInterval
	}

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else if l, err := logging.New(logging.Config{Level: cfg.Logging.Level}); err == nil {
		logger = l
	} else {
		logger = logging.NewDefault()
	}

	metrics := monitoring.NewMetrics()
	hub := ws.NewHub(logger.Logger)

	runner := pipeline.NewRunner(pipeline.Settings{
		ProduceRate:   cfg.Pipeline.ProduceRate,
		WorkDelay:     cfg.Pipeline.WorkDelay,
		ConsumeDelay:  cfg.Pipeline.ConsumeDelay,
		FlushInterval: cfg.Report.FlushInterval,
		Metrics:       metrics,
		Logger:        logger.Logger,
		OnReport: func(runID id.RunID, probe string, starved, backpressured time.Duration) {
			hub.Broadcast(ws.Report{
				RunID:         string(runID),
				Probe:         probe,
				Starved:       starved,
				Backpressured: backpressured,
				ReportedAt:    time.Now().UTC(),
			})
		},
	})

	srv := server.New(cfg, logger, metrics, hub)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	// Start pipeline in goroutine
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := runner.Run(ctx); err != nil {
			logger.Error("Pipeline failed", zap.Error(err))
		}
	}()

	logger.Info("stallmeter running",
		zap.String("run_id", string(runner.ID())),
		zap.String("port", cfg.Server.Port),
	)

	// Wait for shutdown signal or server error
	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully...")
		cancel()
		<-pipelineDone
		if err := srv.Close(); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		cancel()
		log.Fatalf("Server error: %v", err)
	}
}
