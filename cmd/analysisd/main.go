package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/service"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := service.NewStore(cfg.ServiceDataDir)
	if err != nil {
		log.Error("open document store", "error", err, "dir", cfg.ServiceDataDir)
		os.Exit(1)
	}

	srv := service.NewServer(store, log, service.Config{
		APIKey:         cfg.ServiceAPIKey,
		MaxUploadBytes: cfg.MaxFileBytes,
		TopSections:    cfg.TopSections,
		TopSubsections: cfg.TopSubsections,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      srv,
		ReadTimeout:  cfg.UploadTimeout,
		WriteTimeout: cfg.AnalyzeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting analysis service", "port", cfg.ServicePort, "data_dir", cfg.ServiceDataDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
