// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	handler "github.com/newthinker/stockanalyzer/internal/api/handler/api"
	"github.com/newthinker/stockanalyzer/internal/api/middleware"
	"github.com/newthinker/stockanalyzer/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for the stock analyzer API
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MetricsPath  string // empty disables the metrics endpoint
}

// Dependencies holds the components served by the API.
type Dependencies struct {
	Assembler handler.CompanyAssembler
	Metrics   *metrics.Registry // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Assembler == nil {
		return nil, fmt.Errorf("company assembler is required")
	}
	if cfg.MetricsPath != "" && deps.Metrics == nil {
		return nil, fmt.Errorf("metrics path %s configured without a metrics registry", cfg.MetricsPath)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
			ReadTimeout:  orDefault(cfg.ReadTimeout, 15*time.Second),
			WriteTimeout: orDefault(cfg.WriteTimeout, 15*time.Second),
			IdleTimeout:  orDefault(cfg.IdleTimeout, 60*time.Second),
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)

	// Outermost first: recovery, CORS, request logging, metrics
	var h http.Handler = mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.Recovery(logger)(h)

	s.handler = h
	s.httpServer.Handler = h

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	companyHandler := handler.NewCompanyHandler(deps.Assembler)

	var recorder handler.SuggestionRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	suggestionsHandler := handler.NewSuggestionsHandler(recorder)

	s.mux.HandleFunc("GET /{$}", handler.Root)
	s.mux.HandleFunc("GET /health", handler.Health)
	s.mux.HandleFunc("GET /company-info", companyHandler.Get)
	s.mux.HandleFunc("GET /search-suggestions", suggestionsHandler.Search)

	if cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
