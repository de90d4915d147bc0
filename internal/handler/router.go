package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/auth"
	"github.com/athenaeum-lms/athenaeum/internal/config"
	"github.com/athenaeum-lms/athenaeum/internal/domain"
	"github.com/athenaeum-lms/athenaeum/internal/metrics"
)

// HealthChecker reports backing-store health for the health endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Router assembles the HTTP API.
type Router struct {
	userHandler        *UserHandler
	bookHandler        *BookHandler
	issueHandler       *IssueHandler
	reservationHandler *ReservationHandler
	reportHandler      *ReportHandler
	authMiddleware     func(http.Handler) http.Handler
	metrics            *metrics.Metrics
	cors               config.CORSConfig
	health             HealthChecker
	logger             zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	UserHandler        *UserHandler
	BookHandler        *BookHandler
	IssueHandler       *IssueHandler
	ReservationHandler *ReservationHandler
	ReportHandler      *ReportHandler
	AuthMiddleware     func(http.Handler) http.Handler
	Metrics            *metrics.Metrics
	CORS               config.CORSConfig
	Health             HealthChecker
	Logger             zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		userHandler:        cfg.UserHandler,
		bookHandler:        cfg.BookHandler,
		issueHandler:       cfg.IssueHandler,
		reservationHandler: cfg.ReservationHandler,
		reportHandler:      cfg.ReportHandler,
		authMiddleware:     cfg.AuthMiddleware,
		metrics:            cfg.Metrics,
		cors:               cfg.CORS,
		health:             cfg.Health,
		logger:             cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(rt.logger))
	r.Use(recoverer(rt.logger))
	r.Use(corsMiddleware(rt.cors))
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	r.Use(rt.authMiddleware)

	r.Get("/health", rt.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", rt.userHandler.Register)
			r.Post("/login", rt.userHandler.Login)
			r.With(requireStaff).Get("/", rt.userHandler.List)
			r.Get("/{userID}", rt.userHandler.Get)
			r.With(requireAdmin).Put("/{userID}", rt.userHandler.Update)
			r.With(requireAdmin).Delete("/{userID}", rt.userHandler.Delete)
			r.Post("/{userID}/password", rt.userHandler.ChangePassword)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", rt.bookHandler.List)
			r.Get("/search", rt.bookHandler.Search)
			r.Get("/{bookID}", rt.bookHandler.Get)
			r.With(requireStaff).Post("/", rt.bookHandler.Create)
			r.With(requireStaff).Put("/{bookID}", rt.bookHandler.Update)
			r.With(requireStaff).Delete("/{bookID}", rt.bookHandler.Delete)
		})

		r.Route("/issues", func(r chi.Router) {
			r.Post("/", rt.issueHandler.Issue)
			r.With(requireStaff).Get("/", rt.issueHandler.List)
			r.Post("/{issueID}/return", rt.issueHandler.Return)
			r.Get("/{issueID}/fine", rt.issueHandler.Fine)
			r.Get("/user/{userID}", rt.issueHandler.ListByUser)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", rt.reservationHandler.Create)
			r.With(requireStaff).Get("/", rt.reservationHandler.List)
			r.Get("/{reservationID}", rt.reservationHandler.Get)
			r.Delete("/{reservationID}", rt.reservationHandler.Cancel)
			r.With(requireStaff).Post("/{reservationID}/notify", rt.reservationHandler.Notify)
			r.Get("/user/{userID}", rt.reservationHandler.ListByUser)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(requireStaff)
			r.Get("/overdue", rt.reportHandler.Overdue)
			r.Get("/popular", rt.reportHandler.Popular)
			r.Get("/users/{userID}", rt.reportHandler.UserActivity)
		})
	})

	return r
}

// handleHealth reports server and database health.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		if err := rt.health.Ping(r.Context()); err != nil {
			rt.logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// requireStaff rejects requests from non-staff identities.
func requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok || !identity.IsStaff() {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: domain.ErrAccessDenied.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects requests from non-admin identities.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok || !identity.IsAdmin() {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: domain.ErrAccessDenied.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
