package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/cardlink/internal/config"
	"git.home.luguber.info/inful/cardlink/internal/logfields"
	"git.home.luguber.info/inful/cardlink/internal/server/httpserver"
	"git.home.luguber.info/inful/cardlink/internal/settings"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr  string `help:"Listen address (overrides server.addr)"`
	Watch bool   `help:"Reload the enable flag when the configuration file changes" default:"true" negatable:""`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(g, root)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunServe(ctx, g, cfg, root.Config, s.Watch)
}

// RunServe runs the hook server until ctx is done.
func RunServe(ctx context.Context, g *Global, cfg *config.Config, configPath string, watch bool) error {
	app, err := NewApp(ctx, cfg, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if watch {
		if _, err := os.Stat(configPath); err == nil {
			w, err := settings.NewWatcher(configPath, cfg, app.Flag, settings.WithLogger(g.Logger))
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := w.Stop(); err != nil {
					g.Logger.Warn("Failed to stop configuration watcher", logfields.Error(err))
				}
			}()
		}
	}

	srv := httpserver.New(cfg, httpserver.Deps{
		Hooks:    app.Hooks,
		Resolver: app.Resolver,
		Engine:   app.Engine,
		Enabled:  app.Flag.Enabled,
		Registry: app.Registry,
		Logger:   g.Logger,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	g.Logger.Info("Shutdown signal received, stopping server...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		return err
	}
	g.Logger.Info("Server stopped", slog.String("addr", cfg.Server.Addr))
	return nil
}
