package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/glue-decades/internal/config"
	httpserver "github.com/Clark-Hu/glue-decades/internal/http"
	"github.com/Clark-Hu/glue-decades/internal/job"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[decades-api] ", log.LstdFlags|log.Lshortfile)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	runner, err := job.NewFromConfig(initCtx, cfg, logger)
	if err != nil {
		log.Fatalf("init job: %v", err)
	}
	defer runner.Catalog.Close()

	server := httpserver.New(cfg, runner.Catalog, runner, job.NewHistory(100), logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}
