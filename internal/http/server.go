// Package http exposes the campus REST API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Learn-Trical-23/EE-24/internal/auth"
	"github.com/Learn-Trical-23/EE-24/internal/config"
	"github.com/Learn-Trical-23/EE-24/internal/events"
	"github.com/Learn-Trical-23/EE-24/internal/jobs"
	"github.com/Learn-Trical-23/EE-24/internal/metrics"
	"github.com/Learn-Trical-23/EE-24/internal/model"
	"github.com/Learn-Trical-23/EE-24/internal/profiles"
	"github.com/Learn-Trical-23/EE-24/internal/requests"
)

const activityLimit = 15

// Catalog serves the read-mostly course data: subjects and the material activity feed.
type Catalog interface {
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	GetSubject(ctx context.Context, id string) (model.Subject, error)
	InsertSubject(ctx context.Context, code, name string) (model.Subject, error)
	LatestActivity(ctx context.Context, limit int) ([]model.Activity, error)
}

type Deps struct {
	Tokens    *auth.Issuer
	Directory *profiles.Directory
	Requests  *requests.Workflow
	Events    *events.Service
	Cleanup   *jobs.Cleanup
	Catalog   Catalog
	Metrics   *metrics.Metrics
}

type Server struct {
	cfg       config.Config
	log       zerolog.Logger
	tokens    *auth.Issuer
	directory *profiles.Directory
	requests  *requests.Workflow
	events    *events.Service
	cleanup   *jobs.Cleanup
	catalog   Catalog
	metrics   *metrics.Metrics
	origins   []string
	now       func() time.Time
}

func NewServer(cfg config.Config, logger zerolog.Logger, deps Deps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &Server{
		cfg:       cfg,
		log:       logger,
		tokens:    deps.Tokens,
		directory: deps.Directory,
		requests:  deps.Requests,
		events:    deps.Events,
		cleanup:   deps.Cleanup,
		catalog:   deps.Catalog,
		metrics:   deps.Metrics,
		origins:   cfg.AllowedOrigins(),
		now:       time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		hlog.NewHandler(s.log),
		hlog.RequestIDHandler("req_id", "X-Request-Id"),
		s.accessLog,
		middleware.Recoverer,
		s.cors,
	)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/request-admin", s.handleRequestAdmin)

		r.Route("/subjects", func(r chi.Router) {
			r.With(s.authMiddleware).Get("/", s.handleListSubjects)
			r.With(s.authMiddleware, s.requireAdmin).Post("/", s.handleCreateSubject)
			r.With(s.authMiddleware).Get("/{subjectID}", s.handleGetSubject)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.With(s.authMiddleware, s.requireAdmin).Post("/", s.handleCreateEvent)
			r.With(s.authMiddleware, s.requireAdmin).Put("/{eventID}", s.handleUpdateEvent)
			r.With(s.authMiddleware, s.requireAdmin).Delete("/{eventID}", s.handleDeleteEvent)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requireSuperAdmin)
			r.Get("/", s.handleListRequests)
			r.Post("/{requestID}/approve", s.handleApproveRequest)
			r.Post("/{requestID}/reject", s.handleRejectRequest)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requireSuperAdmin)
			r.Get("/", s.handleListUsers)
			r.Post("/{userID}/role", s.handleSetRole)
			r.Post("/{userID}/revoke-tokens", s.handleRevokeTokens)
		})

		r.Route("/admins", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requireSuperAdmin)
			r.Get("/", s.handleListAdmins)
			r.Delete("/{userID}", s.handleRemoveAdmin)
		})

		r.With(s.authMiddleware, s.requireAdmin).Get("/activity/latest", s.handleLatestActivity)

		r.Get("/internal/cleanup-status", s.handleCleanupStatus)
		r.Post("/internal/run-cleanup", s.handleRunCleanup)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"date":   s.now().UTC().Format(time.RFC3339),
	})
}
