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

	"github.com/noit/research-api/internal/api"
	"github.com/noit/research-api/internal/config"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/orchestrator"
	"github.com/noit/research-api/internal/repository/sqlstore"
	"github.com/noit/research-api/internal/service"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "noit-api",
		Short:         "Authenticated query-logging API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	})

	return root
}

func setup() (*config.Config, *logging.SlogLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return nil, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), nil
}

func gormLogLevel(cfg *config.Config) logger.LogLevel {
	if cfg.IsProduction() {
		return logger.Warn
	}
	return logger.Info
}

func runMigrate(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := sqlstore.NewConnection(cfg.DatabaseURL, gormLogLevel(cfg))
	if err != nil {
		log.Error(ctx, "failed to migrate database", "error", err)
		return err
	}
	defer sqlstore.Close(db)

	log.Info(ctx, "database schema is up to date")
	return nil
}

func runServe(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	// Initialize database
	db, err := sqlstore.NewConnection(cfg.DatabaseURL, gormLogLevel(cfg))
	if err != nil {
		log.Error(ctx, "failed to connect to database", "error", err)
		return err
	}
	defer sqlstore.Close(db)

	// Initialize repositories
	repos := sqlstore.NewRepositories(db)

	// Initialize orchestrator
	orch := orchestrator.New(orchestrator.Options{
		BaseURL:      cfg.OrchestratorURL,
		DefaultModel: cfg.DefaultModel,
		Timeout:      cfg.AnswerTimeout,
	})
	log.Info(ctx, "orchestrator selected", "name", orch.Name())

	// Initialize services
	services := service.NewServices(repos, cfg, orch, log)

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create server; writes must outlive the orchestrator call.
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AnswerTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error(ctx, "failed to start server", "error", err)
			return err
		}
		return nil
	case <-quit:
	}

	log.Info(ctx, "shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server forced to shutdown", "error", err)
		return err
	}

	log.Info(ctx, "server stopped")
	return nil
}
