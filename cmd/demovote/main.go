package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/playperu/demovote/internal/config"
	"github.com/playperu/demovote/internal/database"
	"github.com/playperu/demovote/internal/migrations"
	"github.com/playperu/demovote/internal/scenario"
	"github.com/playperu/demovote/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries what every subcommand shares.
type cli struct {
	stdout io.Writer
	dbPath string
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	c := &cli{stdout: stdout}
	root := &cobra.Command{
		Use:   "demovote",
		Short: "Demo voting booth for election campaigns",
		Long: `demovote serves a configurable demo voting booth page.

The editor at / stores one scenario (constituency, candidate, symbol,
voting date and times); the booth at /booth renders it as a ballot table
where only the configured candidate's button reveals the candidate card.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "database path (overrides DB_PATH)")

	root.AddCommand(
		c.serveCmd(),
		c.showCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.resetCmd(),
	)
	return root
}

func (c *cli) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	return cfg, nil
}

// logger is the diagnostic logger of the one-shot commands; it writes to w
// so command output stays clean.
func (c *cli) logger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

// openStore opens the database, applies migrations and returns the slot
// store with a func that closes the database.
func openStore(ctx context.Context, path string) (*server.SlotStore, func() error, error) {
	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to sqlite: %w", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return server.NewSlotStore(db, scenario.SlotKey), db.Close, nil
}
