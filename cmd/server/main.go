package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/clipboard"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/handler"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/notify"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/contextkeeper/pkg/config"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/services"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/store"
)

func main() {
	cfg := config.Load()
	config.SetupLogger(cfg, os.Stderr)

	// Initialize Repository
	repo, err := sqlite.NewKVRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer repo.Close()

	// Initialize Store and Service
	snippets := store.New(repo, cfg.StorageKey)
	service := services.NewSnippetService(snippets)

	broadcaster := notify.NewBroadcaster()

	// Initialize Router
	mux := handler.NewRouter(cfg, handler.Dependencies{
		Service:     service,
		Store:       snippets,
		Broadcaster: broadcaster,
		Clipboard:   clipboard.New(cfg.Clipboard),
	})

	// No WriteTimeout: /api/events holds its response open.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("driver", repo.Driver()).
			Str("panel", cfg.BaseURL+"/").
			Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
