package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/pagepatch/internal/api/http"
	"github.com/GriffinCanCode/pagepatch/internal/api/middleware"
	"github.com/GriffinCanCode/pagepatch/internal/dispatch"
	"github.com/GriffinCanCode/pagepatch/internal/fetch"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagepatch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagepatch/internal/patch"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	service *patch.Service
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer wires configuration, logging, metrics, the suggestion client and
// the routes.
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	}

	policy, err := cfg.Rewrite.Policy()
	if err != nil {
		return nil, fmt.Errorf("failed to build rewrite policy: %w", err)
	}
	logger.Info("Initializing patch server",
		zap.String("port", cfg.Server.Port),
		zap.String("policy", policy.Version),
		zap.String("boundary", policy.Boundary.String()),
		zap.String("missing_attribute", policy.MissingAttribute.String()),
	)

	metrics := monitoring.NewMetrics()

	dispatcher := dispatch.New(policy,
		dispatch.WithLogger(logger.Logger),
		dispatch.WithRecorder(metrics),
	)

	opts := []patch.Option{
		patch.WithMetrics(metrics),
		patch.WithLogger(logger.Logger),
	}
	if cfg.Suggestions.Endpoint != "" {
		client, err := fetch.New(fetch.Config{
			Endpoint:   cfg.Suggestions.Endpoint,
			WebsiteID:  cfg.Suggestions.WebsiteID,
			AppVersion: cfg.Suggestions.AppVersion,
			Timeout:    cfg.Suggestions.Timeout,
			RPS:        cfg.Suggestions.RPS,
			MaxRetries: cfg.Suggestions.MaxRetries,
			TripAfter:  cfg.Suggestions.TripAfter,
		}, fetch.WithLogger(logger.Logger), fetch.WithObserver(metrics))
		if err != nil {
			return nil, fmt.Errorf("failed to create suggestion client: %w", err)
		}
		opts = append(opts, patch.WithFetcher(client))
		logger.Info("Suggestion service configured", zap.String("endpoint", cfg.Suggestions.Endpoint))
	} else {
		logger.Warn("No suggestion endpoint configured, requests must carry suggestions")
	}
	service := patch.NewService(dispatcher, opts...)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	// promhttp compresses its own output
	router.Use(middleware.Gzip(gzip.DefaultCompression, "/metrics"))

	apihttp.NewHandlers(service, metrics, logger.Logger, cfg.Server.MaxBodyBytes).Register(router)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	return &Server{
		router:  router,
		service: service,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Close is called. A clean shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close drains in-flight requests within the configured shutdown timeout.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	_ = s.logger.Sync()
	return nil
}
