package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/snaplist/internal/server"
	"github.com/desertthunder/snaplist/internal/tasks"
	"github.com/desertthunder/snaplist/internal/tracklist"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	defaultMode, err := tracklist.ParseMode(r.config.Resolver.Mode)
	if err != nil {
		return err
	}

	deps, err := r.serverDeps(ctx)
	if err != nil {
		return err
	}
	deps.DefaultMode = defaultMode
	deps.Config = cfg

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting server", "addr", cfg.Addr(), "mode", defaultMode, "origins", cfg.AllowedOrigins)
	return server.New(deps).ListenAndServe(ctx)
}

// serverDeps builds the collaborators shared by every request.
func (r *Runner) serverDeps(ctx context.Context) (server.Deps, error) {
	engines := make(map[tracklist.Mode]tasks.ImageProcessor, 2)
	for _, mode := range []tracklist.Mode{tracklist.ModeMulti, tracklist.ModeSingle} {
		e, err := r.engine(ctx, mode)
		if err != nil {
			return server.Deps{}, err
		}
		engines[mode] = e
	}

	history, err := r.historyRepository()
	if err != nil {
		return server.Deps{}, err
	}
	exporter, err := r.exporter()
	if err != nil {
		return server.Deps{}, err
	}

	return server.Deps{
		Engines:  engines,
		History:  history,
		Exporter: exporter,
		Metrics:  r.metrics,
		Logger:   r.logger,
		Config:   r.config.Server,
	}, nil
}
