package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ingestd/internal/api"
	"ingestd/internal/config"
	"ingestd/internal/notify"
	"ingestd/internal/pipeline"
	"ingestd/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.DataDir, false)
	if err != nil {
		log.Error("failed to open chunk store", "error", err, "dir", cfg.DataDir)
		os.Exit(1)
	}

	var notifier *notify.Client
	if cfg.WaitpointBaseURL != "" {
		notifier = notify.NewClient(cfg.WaitpointBaseURL)
	}

	orch, err := pipeline.NewOrchestrator(cfg, st, notifier, log)
	if err != nil {
		log.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}

	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if notifier != nil {
			notifier.Close()
		}
		if err := st.Close(); err != nil {
			log.Error("failed to close chunk store", "error", err)
		}
	}()

	log.Info("starting ingestd", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
