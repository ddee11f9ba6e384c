package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/demovote/internal/audio"
	"github.com/playperu/demovote/internal/booth"
	"github.com/playperu/demovote/internal/config"
	"github.com/playperu/demovote/internal/handler/health"
	"github.com/playperu/demovote/internal/imaging"
	"github.com/playperu/demovote/internal/server"
)

const sweepInterval = time.Minute

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the editor and booth HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return run(cmd.Context(), c.stdout, cfg)
		},
	}
}

func run(ctx context.Context, stdout io.Writer, cfg *config.Config) error {
	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	store, closeDB, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB()
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Booth ---
	audio.Configure(cfg.AudioSampleRate)
	broker := server.NewBroker()
	booths := booth.NewManager(booth.Options{
		PulseDelay:    cfg.PulseDelay,
		AutoFlipDelay: cfg.AutoFlipDelay,
	}, cfg.SessionLimit, broker.Publish)
	defer booths.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:  store,
		Booths: booths,
		Broker: broker,
		Cues:   audio.Shared(),
		Checks: map[string]health.Checker{
			"sqlite": health.CheckerFunc(store.Ping),
		},
		Images: imaging.Options{
			MaxEdge:   cfg.ImageMaxEdge,
			Quality:   cfg.ImageQuality,
			MaxPixels: cfg.ImageMaxPixels,
		},
		MaxUploadBytes: cfg.MaxUploadBytes,
		PublicURL:      cfg.PublicURL,
		StaticDir:      cfg.StaticDir,
		DocsEnabled:    cfg.DocsEnabled,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		sweepSessions(gctx, logger, booths, cfg.SessionIdle)
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// sweepSessions drops booth sessions nobody has touched for idle until ctx
// is done.
func sweepSessions(ctx context.Context, logger *slog.Logger, booths *booth.Manager, idle time.Duration) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := booths.Sweep(now, idle); n > 0 {
				logger.Debug("swept idle booth sessions", "count", n, "live", booths.Len())
			}
		}
	}
}
