package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"regdiag/app"
	"regdiag/internal"
	"regdiag/internal/config"
	"regdiag/internal/report"
	"regdiag/ports"
)

// DatasetOpener loads a dataset source from a file path. Injected so
// handlers can be tested without touching the filesystem.
type DatasetOpener func(path string) (ports.DatasetSourcePort, error)

// Server exposes the diagnostics service over HTTP.
type Server struct {
	router   *chi.Mux
	service  *app.DiagnosticsService
	repo     ports.RunRepositoryPort // nil when persistence is disabled
	opener   DatasetOpener
	renderer *report.Renderer
	defaults config.DataConfig
	logger   *internal.Logger
}

// NewServer creates the HTTP server around the diagnostics service.
func NewServer(service *app.DiagnosticsService, repo ports.RunRepositoryPort, opener DatasetOpener, defaults config.DataConfig, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:   chi.NewRouter(),
		service:  service,
		repo:     repo,
		opener:   opener,
		renderer: report.NewRenderer(),
		defaults: defaults,
		logger:   logger,
	}

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Route("/api/diagnostics", func(r chi.Router) {
		r.Post("/runs", s.handleCreateRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/report", s.handleGetRunReport)
	})
	s.router.Get("/healthz", s.handleHealth)

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server on the given port.
func (s *Server) ListenAndServe(port string) error {
	s.logger.Info("diagnostics API listening on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}
