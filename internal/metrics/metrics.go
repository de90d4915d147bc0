// Package metrics exposes Prometheus instrumentation for the API server.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/config"
)

// Metrics holds all collectors for the server.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	BooksIssued    prometheus.Counter
	BooksReturned  prometheus.Counter
	FinesCollected prometheus.Counter
	Reservations   prometheus.Counter
}

// New creates a Metrics with its own registry, including the standard
// Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: registry,
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "athenaeum",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "athenaeum",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BooksIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "athenaeum",
			Name:      "books_issued_total",
			Help:      "Total books issued.",
		}),
		BooksReturned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "athenaeum",
			Name:      "books_returned_total",
			Help:      "Total books returned.",
		}),
		FinesCollected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "athenaeum",
			Name:      "fines_collected_total",
			Help:      "Total fine amount settled on returns.",
		}),
		Reservations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "athenaeum",
			Name:      "reservations_total",
			Help:      "Total reservations placed.",
		}),
	}
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the response status for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP requests. The route label uses the request
// path's first two segments to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := routeLabel(r.URL.Path)
		m.httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel truncates a path to "/api/{resource}" so per-ID paths don't
// explode the label space.
func routeLabel(path string) string {
	segments := 0
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			segments++
			if segments == 2 {
				return path[:i]
			}
		}
	}
	return path
}

// Server wraps a standalone HTTP server for the scrape endpoint.
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a metrics server from config. Returns nil when
// metrics are disabled.
func NewServer(cfg config.MetricsConfig, m *Metrics, logger zerolog.Logger) *Server {
	if !cfg.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, m.Handler())

	return &Server{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start runs the metrics server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("metrics server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
