package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/vesta/pkg/audit"
	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/rbac"
	"mercator-hq/vesta/pkg/store/manager"
	"mercator-hq/vesta/pkg/telemetry/health"
)

// Options carries the optional collaborators a Server can expose alongside
// the configuration API. Nil fields disable the corresponding endpoint.
type Options struct {
	// AuditSink, when set, enables GET /v1/audit/events.
	AuditSink audit.Sink

	// Enforcer gates the audit endpoint. When set, the actor must hold the
	// Admin or Auditor role; when nil the endpoint is open to any
	// authenticated actor.
	Enforcer *rbac.Enforcer

	// Checker backs /readyz. Liveness is always served.
	Checker *health.Checker

	// MetricsHandler, when set, is mounted at MetricsPath.
	MetricsHandler http.Handler
	MetricsPath    string

	Logger *slog.Logger
}

// Server serves the REST API for a configuration manager.
type Server struct {
	config  *config.ServerConfig
	manager *manager.Manager

	auditSink audit.Sink
	enforcer  *rbac.Enforcer
	checker   *health.Checker

	auth    authenticator
	limiter *rateLimiter

	logger     *slog.Logger
	httpServer *http.Server
}

// New builds a Server from the given configuration and manager.
func New(cfg *config.ServerConfig, mgr *manager.Manager, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	if mgr == nil {
		return nil, errors.New("manager is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	auth, err := newAuthenticator(&cfg.Auth)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		manager:   mgr,
		auditSink: opts.AuditSink,
		enforcer:  opts.Enforcer,
		checker:   opts.Checker,
		auth:      auth,
		logger:    logger.With("component", "server"),
	}
	if cfg.RateLimit.Enabled {
		s.limiter = newRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleLiveness)
	mux.HandleFunc("GET /readyz", s.handleReadiness)
	if opts.MetricsHandler != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, opts.MetricsHandler)
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/configs/{namespace}", s.handleList)
	api.HandleFunc("GET /v1/configs/{namespace}/{key}", s.handleGet)
	api.HandleFunc("PUT /v1/configs/{namespace}/{key}", s.handleSet)
	api.HandleFunc("DELETE /v1/configs/{namespace}/{key}", s.handleDelete)
	api.HandleFunc("GET /v1/configs/{namespace}/{key}/history", s.handleHistory)
	api.HandleFunc("POST /v1/configs/{namespace}/{key}/rollback/{version}", s.handleRollback)
	api.HandleFunc("GET /v1/audit/events", s.handleAuditEvents)
	mux.Handle("/v1/", s.authenticate(s.rateLimit(api)))

	handler := s.recovery(s.requestID(s.requestLogging(mux)))

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

// Handler returns the fully wired HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves requests until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
