// Package httpserver wires the cardlink hook API onto a chi router and runs it.
package httpserver

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/cardlink/internal/config"
	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/metrics"
	"git.home.luguber.info/inful/cardlink/internal/server/handlers"
	smw "git.home.luguber.info/inful/cardlink/internal/server/middleware"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Hooks    handlers.Lifecycle
	Resolver handlers.Resolver
	Engine   handlers.PreviewEngine
	Enabled  func() bool
	Registry *prometheus.Registry // nil disables /metrics
	Logger   *slog.Logger
}

// Server serves the hook API.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	router    chi.Router
	srv       *http.Server
	startTime time.Time
	enabled   func() bool
}

// New builds the router for cfg and deps.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
		enabled:   deps.Enabled,
	}

	cards := handlers.NewCardHandlers(deps.Hooks, deps.Resolver, deps.Engine, logger)
	monitoring := handlers.NewMonitoringHandlers(s, logger)

	r := chi.NewRouter()
	r.Use(smw.Chain(logger, errors.NewHTTPErrorAdapter(logger)))

	r.Get("/healthz", monitoring.HandleHealthCheck)
	if cfg.Metrics.Enabled && deps.Registry != nil {
		r.Handle(cfg.Metrics.Path, metrics.HTTPHandler(deps.Registry))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/rewrite", cards.HandleRewrite)
		r.Post("/customize", cards.HandleCustomize)
		r.Get("/resolve", cards.HandleResolve)
		r.Post("/placeholder", cards.HandlePlaceholder)
	})
	r.Get("/onebox", cards.HandleOnebox)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// StartTime implements handlers.Status.
func (s *Server) StartTime() time.Time { return s.startTime }

// Enabled implements handlers.Status.
func (s *Server) Enabled() bool {
	return s.enabled == nil || s.enabled()
}

// Start binds the configured address and serves in the background. Binding
// happens before Start returns so address conflicts surface immediately.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "http startup failed").WithContext("addr", s.cfg.Server.Addr).Build()
	}
	return s.Serve(ln)
}

// Serve serves on ln in the background.
func (s *Server) Serve(ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Hook server error", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("Hook server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "hook server shutdown").Build()
	}
	s.logger.Info("Hook server stopped")
	return nil
}
