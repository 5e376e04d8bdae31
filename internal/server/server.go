package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/tenantops/auditgate/internal/domain"
	"github.com/tenantops/auditgate/internal/middleware"
	"github.com/tenantops/auditgate/internal/repository"
)

// RecommendationActions is the slice of the recommendation service the HTTP
// surface needs.
type RecommendationActions interface {
	Create(ctx context.Context, tenantID uuid.UUID, title, body string) (domain.Recommendation, error)
	Approve(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error)
	Reject(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (domain.Recommendation, error)
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server exposes the audit query surface and the guarded recommendation
// endpoints.
type Server struct {
	auditLogs       repository.AuditLogRepository
	recommendations RecommendationActions
	registry        *prometheus.Registry
	logger          *zap.Logger
	opts            Options
}

// New wires the HTTP surface.
func New(auditLogs repository.AuditLogRepository, recs RecommendationActions, registry *prometheus.Registry, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 50
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 100
	}
	return &Server{
		auditLogs:       auditLogs,
		recommendations: recs,
		registry:        registry,
		logger:          logger,
		opts:            opts,
	}
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes() http.Handler {
	limiter := middleware.NewClientRateLimiter(s.opts.RateLimitRPS, s.opts.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(middleware.Logging(s.logger))
	r.Use(limiter.Middleware)
	r.Use(middleware.RequestScope)

	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/audit/records", s.handleListAuditRecords)
		r.Get("/audit/records/{id}", s.handleGetAuditRecord)

		r.Post("/recommendations", s.handleCreateRecommendation)
		r.Post("/recommendations/{id}/approve", s.handleApproveRecommendation)
		r.Post("/recommendations/{id}/reject", s.handleRejectRecommendation)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	return corsHandler.Handler(r)
}
