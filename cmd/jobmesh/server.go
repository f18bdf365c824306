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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jobmesh/jobmesh/internal/config"
	"github.com/jobmesh/jobmesh/internal/db"
	"github.com/jobmesh/jobmesh/internal/repositories"
	"github.com/jobmesh/jobmesh/internal/scheduler"
	"github.com/jobmesh/jobmesh/internal/tasks"
	"github.com/jobmesh/jobmesh/internal/transport"
)

type serverConfig struct {
	metricsAddr    string
	logLevel       string
	senderInterval time.Duration
	getterInterval time.Duration
	cleanerInterval time.Duration
}

func newServerCmd() *cobra.Command {
	cfg := &serverConfig{}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the server role: routes Jobs to compute clients",
		Long: `The server role runs the sender, getter, and cleaner task loops,
picking up Queued Jobs, uploading them to their configured service,
polling for results, and reaping expired job directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", envOrDefault("JOBMESH_METRICS_ADDR", ":9100"), "Prometheus /metrics listen address")
	cmd.Flags().StringVar(&cfg.logLevel, "log-level", envOrDefault("JOBMESH_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	cmd.Flags().DurationVar(&cfg.senderInterval, "sender-interval", 10*time.Second, "How often the sender loop runs")
	cmd.Flags().DurationVar(&cfg.getterInterval, "getter-interval", 10*time.Second, "How often the getter loop runs")
	cmd.Flags().DurationVar(&cfg.cleanerInterval, "cleaner-interval", time.Hour, "How often the cleaner loop runs")

	return cmd
}

func runServer(ctx context.Context, scfg *serverConfig) error {
	logger, err := buildLogger(scfg.logLevel)
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
		LogLevel: gormLogLevel(scfg.logLevel),
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}
	defer sqlDB.Close()

	jobRepo := repositories.NewJobRepository(gormDB)
	endpoint := transport.NewHTTPEndpoint(nil)

	sender := &tasks.Sender{Jobs: jobRepo, Config: cfg, Endpoint: endpoint, Logger: logger}
	getter := &tasks.Getter{Jobs: jobRepo, Config: cfg, Endpoint: endpoint, Logger: logger}
	cleaner := &tasks.Cleaner{Jobs: jobRepo, DataPath: cfg.DataPath, MaxAge: cfg.MaxAge, Logger: logger}

	sched, err := scheduler.New(logger)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Register("sender", sender, scfg.senderInterval); err != nil {
		return err
	}
	if err := sched.Register("getter", getter, scfg.getterInterval); err != nil {
		return err
	}
	if err := sched.Register("cleaner", cleaner, scfg.cleanerInterval); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.Warn("scheduler shutdown error", zap.Error(err))
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: scfg.metricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics server listening", zap.String("addr", scfg.metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
			cancel()
		}
	}()

	logger.Info("jobmesh server started",
		zap.String("version", version),
		zap.String("db_path", cfg.DBPath),
		zap.String("data_path", cfg.DataPath),
		zap.Int("services", len(cfg.Services)),
	)

	<-ctx.Done()
	logger.Info("shutting down jobmesh server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown error", zap.Error(err))
	}

	logger.Info("jobmesh server stopped")
	return nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "info":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}
