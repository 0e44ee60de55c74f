package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/dgallion1/docpersona/internal/analysis"
	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/httpkit"
	"github.com/dgallion1/docpersona/internal/render"
	"github.com/dgallion1/docpersona/internal/submit"
	"github.com/dgallion1/docpersona/internal/workflow"
)

// StatsSource exposes phase latency aggregates. *submit.Pipeline satisfies it.
type StatsSource interface {
	Stats() map[submit.Phase]submit.StatsSnapshot
}

// Library lists documents already held by the analysis service.
// *analysis.Client satisfies it.
type Library interface {
	ListDocuments(ctx context.Context) ([]analysis.LibraryDocument, error)
}

// Server is the HTTP API of the local web front end. It drives one
// workflow controller.
type Server struct {
	router   chi.Router
	ctrl     *workflow.Controller
	stats    StatsSource
	library  Library
	html     *render.HTML
	upgrader websocket.Upgrader
	log      *slog.Logger
	cfg      config.Config

	// runCtx outlives requests; background runs use it.
	runCtx context.Context
}

// NewServer creates and configures the HTTP server. Runs started through
// POST /api/analyze are bound to ctx.
func NewServer(ctx context.Context, ctrl *workflow.Controller, stats StatsSource, library Library, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		ctrl:    ctrl,
		stats:   stats,
		library: library,
		html:    render.NewHTML(),
		log:     log,
		cfg:     cfg,
		runCtx:  ctx,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpkit.RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/files", s.handleListFiles)
		r.Post("/files", s.handleAddFiles)
		r.Delete("/files/{index}", s.handleRemoveFile)
		r.Get("/files.html", s.handleFilesHTML)

		r.Post("/analyze", s.handleAnalyze)
		r.Get("/state", s.handleState)
		r.Post("/reset", s.handleReset)
		r.Get("/report", s.handleReport)
		r.Get("/events", s.handleEvents)

		r.Get("/stats", s.handleStats)
		r.Get("/library", s.handleLibrary)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
