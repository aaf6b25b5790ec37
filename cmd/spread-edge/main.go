// Package main provides the spread-edge command line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/spread-edge/internal/config"
	"github.com/yourusername/spread-edge/internal/database"
	"github.com/yourusername/spread-edge/internal/datasource"
	"github.com/yourusername/spread-edge/internal/logger"
	"github.com/yourusername/spread-edge/internal/metrics"
	"github.com/yourusername/spread-edge/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile    string
	appLog        *logrus.Logger
	cfg           *config.Config
	db            *database.DB
	repos         *repository.Repositories
	metricsServer *http.Server
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(backtestCmd, ratingsCmd, edgesCmd, importCmd, migrateCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:           "spread-edge",
	Short:         "Elo spread ratings, edge detection and backtesting",
	Long:          `Builds point-in-time Elo ratings from historical games, compares projected spreads with market lines and backtests qualification rules on a held-out window.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		startMetricsServer()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdown()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("spread-edge %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		shutdown()
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.LoadSecrets(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return err
	}

	appLog = logger.NewWithOptions(logger.Options{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"data_source": cfg.Data.Source,
	}).Debug("Configuration loaded")
	return nil
}

// connect opens the database once and builds the repositories
func connect(ctx context.Context) (*repository.Repositories, error) {
	if repos != nil {
		return repos, nil
	}
	var err error
	db, err = database.Initialize(ctx, cfg, appLog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	repos, err = repository.NewRepositories(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}
	appLog.Info("Database connection established")
	return repos, nil
}

// openStore builds the configured game store, connecting to postgres if needed
func openStore(ctx context.Context) (datasource.Store, error) {
	var r *repository.Repositories
	if datasource.SourceType(cfg.Data.Source) == datasource.PostgresSourceType {
		var err error
		if r, err = connect(ctx); err != nil {
			return nil, err
		}
	}
	return datasource.NewStore(ctx, cfg, r, appLog)
}

func startMetricsServer() {
	if !cfg.Metrics.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	metricsServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		appLog.WithField("addr", metricsServer.Addr).Info("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Error("Metrics server failed")
		}
	}()
}

func shutdown() {
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(ctx); err != nil {
			appLog.WithError(err).Warn("Failed to stop metrics server")
		}
		cancel()
		metricsServer = nil
	}
	if db != nil {
		db.Close()
		db = nil
	}
}
