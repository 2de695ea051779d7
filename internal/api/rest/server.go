package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/infrastructure/config"
)

// Server is the HTTP front of the message security subsystem.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer wires the handler, health endpoints, and middleware chain. The
// API routes sit behind auth and rate limiting; health and metrics do not.
func NewServer(cfg *config.Config, handler *Handler, health *HealthChecker, tracer trace.Tracer, logger *zap.Logger) *Server {
	api := http.NewServeMux()
	handler.Register(api)

	protected := Chain(api,
		RateLimitMiddleware(cfg.Security.RateLimit.RequestsPerSecond, cfg.Security.RateLimit.BurstSize),
		AuthMiddleware(cfg.Security.JWTSecret, logger),
	)

	root := http.NewServeMux()
	root.Handle("/api/v1/", protected)
	root.HandleFunc("GET /healthz", health.Liveness)
	root.HandleFunc("GET /readyz", health.Readiness)
	root.Handle("GET /metrics", promhttp.Handler())

	chain := Chain(root,
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		TracingMiddleware(tracer),
		LoggingMiddleware(logger),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      chain,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logger,
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
