package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/api"
	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/submit"
	"github.com/dgallion1/docpersona/internal/workflow"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the analysis service client and submission pipeline.
	client := analysis.NewClient(cfg.ServiceURL, analysis.WithAPIKey(cfg.ServiceAPIKey))
	pipe := submit.NewPipeline(client, submit.Config{
		ChallengeID:    cfg.ChallengeID,
		TestCaseName:   cfg.TestCaseName,
		UploadTimeout:  cfg.UploadTimeout,
		AnalyzeTimeout: cfg.AnalyzeTimeout,
		StatsWindow:    cfg.StatsWindow,
	}, log)
	ctrl := workflow.NewController(pipe, log)

	// Initialize HTTP server.
	srv := api.NewServer(ctx, ctrl, pipe, client, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 2 * time.Minute,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Cancels an in-flight run and closes event streams.
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting docpersona web", "port", cfg.Port, "service_url", cfg.ServiceURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
