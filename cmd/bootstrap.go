package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"promptdeck/internal/client"
	"promptdeck/internal/config"
	"promptdeck/internal/db"
	"promptdeck/internal/logging"
	"promptdeck/internal/models"
	"promptdeck/internal/profile"
)

// app holds the wired components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *client.Client
	resolver *profile.Resolver
	closers  []io.Closer

	// prefs is nil when the choice is not persisted.
	prefs *db.Store
}

type appOptions struct {
	// interactive sends logs to a file since the TUI owns the terminal.
	interactive bool

	// ephemeral keeps the backend choice in memory for this run only.
	ephemeral bool

	// backend overrides the active profile without persisting it.
	backend string
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg}
	if err := a.setupLogging(opts.interactive); err != nil {
		return nil, err
	}

	a.resolver = profile.NewResolver(cfg.Profiles, a.preferenceStore(opts), a.logger)
	if opts.backend != "" {
		if err := a.resolver.SetActive(ctx, models.ProfileID(opts.backend)); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.client = client.New(nil, cfg.Timeouts, a.logger)
	return a, nil
}

func (a *app) setupLogging(interactive bool) error {
	if !interactive {
		a.logger = logging.New(os.Stderr, a.cfg.LogLevel)
		return nil
	}

	path := a.cfg.LogFile
	if path == "" {
		path = filepath.Join(filepath.Dir(a.cfg.DBPath), "promptdeck.log")
	}
	logger, closer, err := logging.OpenFile(path, a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closer)
	return nil
}

// preferenceStore picks where the active backend is remembered. A run-only
// override never touches disk, and an unreadable database degrades to the
// default profile rather than failing the command.
func (a *app) preferenceStore(opts appOptions) profile.Store {
	if opts.ephemeral || opts.backend != "" {
		return profile.NewMemoryStore()
	}
	store, err := db.Open(a.cfg.DBPath)
	if err != nil {
		a.logger.Warn("Preference database unavailable, using default backend",
			"path", a.cfg.DBPath,
			"error", err)
		return profile.NopStore{}
	}
	a.closers = append(a.closers, store)
	a.prefs = store
	return store
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Error("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
