package datasource

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/spread-edge/internal/config"
	"github.com/yourusername/spread-edge/internal/repository"
	"github.com/yourusername/spread-edge/internal/season"
)

// SourceType represents the type of data source
type SourceType string

const (
	// FileSourceType reads CSV files from disk or http(s) URLs
	FileSourceType SourceType = "file"
	// PostgresSourceType reads the games, market_lines and team_seasons tables
	PostgresSourceType SourceType = "postgres"
)

// NewStore creates the configured store. repos is required for the postgres source.
func NewStore(ctx context.Context, cfg *config.Config, repos *repository.Repositories, log *logrus.Logger) (Store, error) {
	switch SourceType(cfg.Data.Source) {
	case FileSourceType:
		calName := cfg.Data.Calendar
		if calName == "" {
			calName = "nfl"
		}
		cal, err := season.ByName(calName)
		if err != nil {
			return nil, err
		}
		loader := NewLoader(cal, NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), log), log)
		store, err := loader.Load(ctx, Files{
			GamesPath: cfg.Data.GamesPath,
			LinesPath: cfg.Data.LinesPath,
			TeamsPath: cfg.Data.TeamsPath,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case PostgresSourceType:
		if repos == nil {
			return nil, fmt.Errorf("postgres data source requires repositories")
		}
		return NewPostgresStore(repos), nil

	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Data.Source)
	}
}
