package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/notify"
	"github.com/wadjakorntonsri/contextkeeper/pkg/config"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/capture"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

// Dependencies groups what the router wires into its handlers.
type Dependencies struct {
	Service     ports.SnippetService
	Store       ports.SnippetStore
	Broadcaster *notify.Broadcaster
	Clipboard   ports.Clipboard

	// CaptureOptions are applied to every capture session; tests pin ids and clocks here.
	CaptureOptions []capture.Option
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	relay := notify.NewRelay(deps.Broadcaster)

	sh := NewSnippetHandler(deps.Service, deps.Clipboard)
	ch := NewCaptureHandler(deps.Store, relay, deps.CaptureOptions...)
	ph := NewPanelHandler(deps.Service)

	mw := NewMiddleware(cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	// Management panel
	r.Get("/", ph.Index)

	// The widget and its endpoint are reachable from any page the widget is loaded on.
	r.With(mw.CORS).Get("/capture.js", ch.Script)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.CORS)
			r.Options("/capture", func(w http.ResponseWriter, r *http.Request) {})
			r.Post("/capture", ch.Capture)
		})

		r.Get("/events", deps.Broadcaster.HandleSSE)
		r.Get("/stats", sh.Stats)
		r.Get("/export", sh.Export)
		r.Post("/import", sh.Import)

		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", sh.List)
			r.Delete("/", sh.ClearAll)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sh.Get)
				r.Put("/", sh.Update)
				r.Delete("/", sh.Delete)
				r.Get("/context", sh.Context)
				r.Post("/used", sh.MarkUsed)
				r.Post("/copy", sh.Copy)
			})
		})
	})

	return r
}
