// Package cli provides the command-line interface for the SQLite viewer.
package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/josancamon19/sqlite-viewer/internal/config"
	"github.com/josancamon19/sqlite-viewer/internal/db"
	"github.com/josancamon19/sqlite-viewer/internal/server"
	"github.com/josancamon19/sqlite-viewer/internal/state"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command. Running the binary
// with no subcommand starts the server.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlite-viewer",
		Short: "Read-only web viewer for local SQLite databases",
		Long: `sqlite-viewer serves a local SQLite database file as a small JSON API
with a bundled table-browser UI: list tables and views, inspect a
table's schema, page through rows, and fetch full cell values
including binary blobs.

The database is opened read-only. The last-opened path is remembered
across restarts.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	flags := rootCmd.Flags()
	flags.String("host", "", "bind address (default 127.0.0.1, or HOST)")
	flags.Int("port", 0, "listen port (default 8000, or PORT)")
	flags.String("public-dir", "", "directory holding the UI bundle")
	flags.String("data-dir", "", "directory for persisted viewer state")
	flags.BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose)

	store := state.NewStore(cfg.DataDir)
	manager := db.NewManager(store)
	defer func() { _ = manager.Close() }()

	// Best-effort restore of the previously opened database; a stale or
	// deleted path just means starting with nothing open.
	if path := store.Load(); path != "" {
		if err := manager.Open(path); err != nil {
			logger.Warn("could not reopen saved database", "path", path, "error", err)
		}
	}

	srv := server.New(server.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		PublicDir: cfg.PublicDir,
		Manager:   manager,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
