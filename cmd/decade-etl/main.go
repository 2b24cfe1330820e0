package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/glue-decades/internal/config"
	"github.com/Clark-Hu/glue-decades/internal/job"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[decade-etl] ", log.LstdFlags|log.Lshortfile)

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RunTimeoutSecs)*time.Second)
	defer cancel()

	runner, err := job.NewFromConfig(runCtx, cfg, logger)
	if err != nil {
		log.Fatalf("init job: %v", err)
	}

	res, err := runner.Run(runCtx)
	if closeErr := runner.Catalog.Close(); closeErr != nil {
		logger.Printf("close catalog: %v", closeErr)
	}
	if err != nil {
		cancel()
		stop()
		log.Fatalf("run %s failed: %v", res.ID, err)
	}
	logger.Printf("run %s wrote %d decades to %s", res.ID, len(res.Summaries), res.Location)
}
