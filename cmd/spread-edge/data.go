package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/spread-edge/internal/database"
	"github.com/yourusername/spread-edge/internal/datasource"
	"github.com/yourusername/spread-edge/internal/season"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the configured CSV files into postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := validateDatabaseConfig(); err != nil {
			return err
		}

		calName := cfg.Data.Calendar
		if calName == "" {
			calName = "nfl"
		}
		cal, err := season.ByName(calName)
		if err != nil {
			return err
		}
		loader := datasource.NewLoader(cal, datasource.NewRateLimitedHTTPClient(datasource.DefaultHTTPClientConfig(), appLog), appLog)
		src, err := loader.Load(ctx, datasource.Files{
			GamesPath: cfg.Data.GamesPath,
			LinesPath: cfg.Data.LinesPath,
			TeamsPath: cfg.Data.TeamsPath,
		})
		if err != nil {
			return err
		}

		r, err := connect(ctx)
		if err != nil {
			return err
		}
		n, err := datasource.Import(ctx, src, r)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		appLog.WithFields(logrus.Fields{
			"games": n,
			"files": cfg.Data.GamesPath,
		}).Info("Import complete")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDatabaseConfig(); err != nil {
			return err
		}
		var err error
		db, err = database.NewDB(cmd.Context(), &cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		applied, err := db.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		appLog.WithField("applied", applied).Info("Schema is up to date")
		return nil
	},
}

func validateDatabaseConfig() error {
	if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
		return fmt.Errorf("database host, name and user must be configured")
	}
	return nil
}
