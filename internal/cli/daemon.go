package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fathomvfx/showsync/internal/action"
	"github.com/fathomvfx/showsync/internal/config"
	"github.com/fathomvfx/showsync/internal/db"
	"github.com/fathomvfx/showsync/internal/ledger"
	"github.com/fathomvfx/showsync/internal/lock"
	"github.com/fathomvfx/showsync/internal/mirror"
	"github.com/fathomvfx/showsync/internal/track"
	"github.com/fathomvfx/showsync/internal/webhooks"
)

// DaemonOptions configures the showsyncd daemon.
type DaemonOptions struct {
	LedgerPath string // Ledger database path override (defaults to config)
	LogLevel   string // Log level override (defaults to config)
}

// ServeDaemon runs the event daemon: one hub per configured tracking
// server, with the copy-project action on the primary and a mirror
// syncer in each direction when the partner server is configured. It
// returns when the process receives SIGINT or SIGTERM.
func ServeDaemon(opts DaemonOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.LedgerPath != "" {
		cfg.LedgerPath = opts.LedgerPath
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	database, err := db.Open(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer database.Close()

	if err := database.RequiresMigrationError(); err != nil {
		return err
	}

	store := ledger.New(database)
	lk := lock.New(cfg.LockPath)
	notify := webhooks.NewNotifier(cfg.Webhooks(), logger)

	primary := track.NewSession(cfg.Primary.URL, cfg.Primary.APIUser, cfg.Primary.APIKey, logger.With("server", "primary"))
	primaryHub := track.NewHub(primary, logger.With("server", "primary"))

	action.NewCopyProject(primary, store, lk, notify, logger).Register(primaryHub)

	hubs := []*track.Hub{primaryHub}

	if cfg.Partner.Configured() {
		partner := track.NewSession(cfg.Partner.URL, cfg.Partner.APIUser, cfg.Partner.APIKey, logger.With("server", "partner"))
		partnerHub := track.NewHub(partner, logger.With("server", "partner"))

		primaryHub.Subscribe(track.TopicUpdate,
			mirror.New(primary, partner, "partner", store, lk, cfg.TaskFilter, logger).HandleUpdate)
		partnerHub.Subscribe(track.TopicUpdate,
			mirror.New(partner, primary, "primary", store, lk, cfg.TaskFilter, logger).HandleUpdate)

		hubs = append(hubs, partnerHub)
	} else {
		logger.Info("partner server not configured, mirroring disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("showsyncd started",
		"ledger", cfg.LedgerPath,
		"primary", cfg.Primary.URL,
		"mirroring", cfg.Partner.Configured())

	errCh := make(chan error, len(hubs))
	for _, hub := range hubs {
		go func(h *track.Hub) {
			errCh <- h.Run(ctx)
		}(hub)
	}

	var runErr error
	for range hubs {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			runErr = err
		}
	}
	logger.Info("showsyncd stopped")
	return runErr
}
