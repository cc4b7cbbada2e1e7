package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gazette/internal/logger"
	"github.com/kailas-cloud/gazette/internal/usecase/health"
)

// healthChecker is the consumer interface for the ops endpoints (ISP).
type healthChecker interface {
	Check(ctx context.Context) health.Report
}

// Server is the operational HTTP listener: liveness, readiness and metrics.
// The engine itself is driven through the CLI; this listener only exposes
// observability endpoints for long-running ingest jobs.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// Config holds the listener settings.
type Config struct {
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
}

// NewServer creates the ops listener.
func NewServer(cfg *Config, checker healthChecker, log *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(logger.ContextWithLogger(req.Context(), log)))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		report := checker.Check(req.Context())

		status := http.StatusOK
		if report.Status != health.Healthy {
			status = http.StatusServiceUnavailable
			logger.FromContext(req.Context()).Warn("readiness degraded",
				zap.Any("checks", report.Checks))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})

	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		},
		logger: log,
	}
}

// Start runs the listener until it fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("ops listener starting", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ops listener: %w", err)
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
