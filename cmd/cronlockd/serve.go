package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/cronlock/api"
	audithook "github.com/xraph/cronlock/audit_hook"
	"github.com/xraph/cronlock/engine"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a scheduler replica and the admin API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.newLogger()
	if err != nil {
		return err
	}
	schedCfg, err := cfg.Scheduler.Cronlock()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, cleanup, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer cleanup()

	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithConfig(schedCfg),
		engine.WithErrorHandler(func(_ context.Context, alias string, err error) {
			logger.Debug("cron error reported", slog.String("alias", alias), slog.String("error", err.Error()))
		}),
	}
	if cfg.Log.Audit {
		opts = append(opts, engine.WithExtension(audithook.New(auditRecorder(logger), audithook.WithLogger(logger))))
	}
	ls, err := openLockStore(cfg.Locks, logger)
	if err != nil {
		return err
	}
	if ls != nil {
		opts = append(opts, engine.WithLockStore(ls))
	}

	eng, err := engine.Build(s, opts...)
	if err != nil {
		return err
	}
	if err := defineJobs(eng, cfg.Jobs); err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}

	var srv *http.Server
	if cfg.HTTP.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.New(eng, api.WithLogger(logger)).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("admin api listening", slog.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin api stopped", slog.String("error", err.Error()))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), schedCfg.ShutdownTimeout+5*time.Second)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin api shutdown", slog.String("error", err.Error()))
		}
	}
	return eng.Stop(shutdownCtx)
}

// auditRecorder logs audit events at warn level so they survive the usual
// level filtering.
func auditRecorder(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
		attrs := []slog.Attr{
			slog.String("action", evt.Action),
			slog.String("resource", evt.Resource),
			slog.String("resource_id", evt.ResourceID),
			slog.String("outcome", evt.Outcome),
			slog.String("severity", evt.Severity),
			slog.Any("metadata", evt.Metadata),
		}
		if evt.Reason != "" {
			attrs = append(attrs, slog.String("reason", evt.Reason))
		}
		logger.LogAttrs(ctx, slog.LevelWarn, "audit", attrs...)
		return nil
	})
}
