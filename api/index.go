package handler

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/clipboard"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/handler"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/notify"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/contextkeeper/pkg/config"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/services"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/store"
)

var (
	once    sync.Once
	mux     http.Handler
	initErr error
)

// The local file system is ephemeral on serverless hosts, so DATABASE_URL
// should point at a libsql:// database. There is no clipboard to write to.
func setup() {
	cfg := config.Load()
	config.SetupLogger(cfg, nil)

	repo, err := sqlite.NewKVRepository(cfg.DatabaseURL)
	if err != nil {
		initErr = err
		return
	}

	snippets := store.New(repo, cfg.StorageKey)
	mux = handler.NewRouter(cfg, handler.Dependencies{
		Service:     services.NewSnippetService(snippets),
		Store:       snippets,
		Broadcaster: notify.NewBroadcaster(),
		Clipboard:   clipboard.Disabled{},
	})
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		log.Error().Err(initErr).Msg("Failed to connect to database")
		http.Error(w, "database unavailable", http.StatusInternalServerError)
		return
	}
	mux.ServeHTTP(w, r)
}
