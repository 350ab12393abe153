package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/tabusync/internal/api"
	"github.com/dgallion1/tabusync/internal/board"
	"github.com/dgallion1/tabusync/internal/config"
	"github.com/dgallion1/tabusync/internal/fetch"
	"github.com/dgallion1/tabusync/internal/history"
	"github.com/dgallion1/tabusync/internal/parser"
	"github.com/dgallion1/tabusync/internal/pipeline"
	"github.com/dgallion1/tabusync/internal/syncer"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	accounts, err := config.LoadAccounts(cfg.AccountsFile)
	if err != nil {
		log.Error("invalid accounts file", "path", cfg.AccountsFile, "error", err)
		os.Exit(1)
	}

	runs, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.Error("open history", "path", cfg.HistoryDB, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients. Each job talks to the board with its own token.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	stats := board.NewCallStats(time.Hour)
	clients := func(token string) pipeline.BoardClient {
		c := board.NewClient(cfg.MondayAPIURL, cfg.MondayAPIVersion, token, httpClient)
		c.Stats = stats
		return c
	}
	files := fetch.New(cfg.DownloadDir, cfg.MaxDownloadBytes, httpClient)
	retry := syncer.Retrier{Attempts: cfg.SyncMaxAttempts, BaseDelay: cfg.SyncRetryBaseDelay}

	// Initialize pipeline.
	worker := pipeline.NewWorker(accounts, clients, files, parser.New(log), retry, runs, log)
	orch := pipeline.NewOrchestrator(cfg, worker, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, runs, accounts.IDs(), stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown. Running jobs finish before the process exits.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		runs.Close()
	}()

	log.Info("starting tabusync", "port", cfg.Port, "accounts", len(accounts.IDs()))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
	log.Info("stopped")
}
