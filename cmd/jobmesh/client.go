package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobmesh/jobmesh/internal/api"
	"github.com/jobmesh/jobmesh/internal/config"
	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/scheduler"
	"github.com/jobmesh/jobmesh/internal/tasks"
)

type clientConfig struct {
	httpAddr        string
	logLevel        string
	runnerInterval  time.Duration
	cleanerInterval time.Duration
}

func newClientCmd() *cobra.Command {
	cfg := &clientConfig{}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Run the client role: executes scripts for upstream servers",
		Long: `The client role exposes /submit, /retrieve/{id}, and /load over HTTP,
runs the runner task loop that executes each Prepared Payload's run.sh
under the script-safety gate, and runs the cleaner loop that reaps
Payload directories once they age past max_age.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.httpAddr, "http-addr", envOrDefault("JOBMESH_HTTP_ADDR", ":8080"), "HTTP listen address for submit/retrieve/load")
	cmd.Flags().StringVar(&cfg.logLevel, "log-level", envOrDefault("JOBMESH_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	cmd.Flags().DurationVar(&cfg.runnerInterval, "runner-interval", 5*time.Second, "How often the runner loop runs")
	cmd.Flags().DurationVar(&cfg.cleanerInterval, "cleaner-interval", time.Hour, "How often the payload cleaner loop runs")

	return cmd
}

func runClient(ctx context.Context, ccfg *clientConfig) error {
	logger, err := buildLogger(ccfg.logLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load(func(msg string) { logger.Warn(msg) })

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gormDB, err := db.New(db.Config{
		DSN:      cfg.DBPath,
		Logger:   logger,
		LogLevel: gormLogLevel(ccfg.logLevel),
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}
	defer sqlDB.Close()

	payloadRepo := repositories.NewPayloadRepository(gormDB)

	runner := &tasks.Runner{Payloads: payloadRepo, Logger: logger}
	cleaner := &tasks.PayloadCleaner{Payloads: payloadRepo, DataPath: cfg.DataPath, MaxAge: cfg.MaxAge, Logger: logger}

	sched, err := scheduler.New(logger)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Register("runner", runner, ccfg.runnerInterval); err != nil {
		return err
	}
	if err := sched.Register("cleaner", cleaner, ccfg.cleanerInterval); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.Warn("scheduler shutdown error", zap.Error(err))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Payloads: payloadRepo,
		DataPath: cfg.DataPath,
		Logger:   logger,
	})

	httpSrv := &http.Server{
		Addr:         ccfg.httpAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", ccfg.httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	logger.Info("jobmesh client started",
		zap.String("version", version),
		zap.String("db_path", cfg.DBPath),
		zap.String("data_path", cfg.DataPath),
	)

	<-ctx.Done()
	logger.Info("shutting down jobmesh client")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server graceful shutdown error", zap.Error(err))
	}

	logger.Info("jobmesh client stopped")
	return nil
}
