package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/tabusync/internal/board"
	"github.com/dgallion1/tabusync/internal/config"
	"github.com/dgallion1/tabusync/internal/history"
	"github.com/dgallion1/tabusync/internal/pipeline"
)

// JobQueue accepts jobs and looks them up while they are tracked.
type JobQueue interface {
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
	QueueDepth(accountID string) int
}

// RunLister reads finished runs.
type RunLister interface {
	Recent(ctx context.Context, accountID string, limit int) ([]history.Run, error)
}

// Server is the HTTP API server for tabusync.
type Server struct {
	router   chi.Router
	jobs     JobQueue
	runs     RunLister
	accounts []string
	stats    *board.CallStats
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. accounts lists the
// configured account ids for queue stats; stats may be nil.
func NewServer(jobs JobQueue, runs RunLister, accounts []string, stats *board.CallStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		jobs:     jobs,
		runs:     runs,
		accounts: accounts,
		stats:    stats,
		log:      log,
		cfg:      cfg,
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
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Board integration, authenticated by the signed session token.
	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware([]byte(s.cfg.MondaySigningSecret), s.log))

		r.Post("/monday/send_pdf", s.handleSendPDF)
	})

	// Operator endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AdminMiddleware(s.cfg.AdminAPIKey, s.log))

		r.Get("/api/jobs", s.handleListRuns)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats/queues", s.handleQueueStats)
		r.Get("/api/stats/board", s.handleBoardStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
