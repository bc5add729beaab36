package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rendis/n8nview/internal/config"
	"github.com/rendis/n8nview/internal/expressions"
	"github.com/rendis/n8nview/internal/logging"
	"github.com/rendis/n8nview/internal/panel"
	"github.com/rendis/n8nview/internal/session"
	"github.com/rendis/n8nview/internal/streaming"
	"github.com/rendis/n8nview/internal/validation"
)

const shutdownTimeout = 5 * time.Second

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	settings := fs.String("config", "", "settings file (default: ~/.n8nview/settings.json)")
	listenAddr := fs.String("listen-addr", "", "TCP listen address (overrides settings)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := config.Load(*settings)
	if err != nil {
		return err
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	level := new(slog.LevelVar)
	level.Set(logging.ParseLevel(cfg.LogLevel))
	logger := logging.NewLeveled(stderr, level, cfg.LogFormat)
	slog.SetDefault(logger)

	validator, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return fmt.Errorf("init validator: %w", err)
	}
	registry, err := expressions.NewRegistry()
	if err != nil {
		return fmt.Errorf("init expression engines: %w", err)
	}
	hub := streaming.NewMemoryHub()

	sessions := session.NewManager(session.Options{
		Validator: validator,
		Hub:       hub,
		Logger:    logger,
		Locale:    cfg.Locale,
		TTL:       cfg.SessionTTL,
	})

	sweeper, err := session.NewSweeper(sessions, cfg.SweepSchedule, logger)
	if err != nil {
		return err
	}
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	newPanel := func(c *config.Config) http.Handler {
		return panel.NewServer(panel.Deps{
			Sessions:       sessions,
			Expressions:    registry,
			Hub:            hub,
			Logger:         logger,
			BinDir:         c.BinDir,
			MaxUploadBytes: c.MaxUploadBytes,
		}).Handler()
	}
	swapper := newHandlerSwapper(newPanel(cfg))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           swapper,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := writePIDFile(); err != nil {
		logger.Warn("cannot write pid file", slog.String("error", err.Error()))
	} else {
		defer os.Remove(pidPath())
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("n8nview listening",
		slog.String("addr", cfg.ListenAddr),
		slog.String("locale", cfg.Locale),
		slog.Duration("session_ttl", cfg.SessionTTL),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down", slog.Uint64("dropped_events", hub.Dropped()))
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-hup:
			next, err := config.Load(*settings)
			if err != nil {
				logger.Error("reload failed, keeping current settings", slog.String("error", err.Error()))
				continue
			}
			if *listenAddr != "" {
				next.ListenAddr = *listenAddr
			}
			diff := diffConfigs(*cfg, *next)
			if diff.LogLevelChanged {
				level.Set(logging.ParseLevel(next.LogLevel))
			}
			if diff.PanelChanged {
				swapper.Swap(newPanel(next))
			}
			if len(diff.RestartNeeded) > 0 {
				logger.Warn("settings changed that need a restart", slog.Any("fields", diff.RestartNeeded))
			}
			logger.Info("settings reloaded",
				slog.Bool("log_level_changed", diff.LogLevelChanged),
				slog.Bool("panel_changed", diff.PanelChanged),
			)
			cfg = next
		}
	}
}

func writePIDFile() error {
	if err := os.MkdirAll(config.Dir(), 0o700); err != nil {
		return err
	}
	return os.WriteFile(pidPath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}
