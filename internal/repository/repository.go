// Package repository provides PostgreSQL access to historical games, market
// lines, team metadata and persisted backtest results.
package repository

import (
	"fmt"

	"github.com/yourusername/spread-edge/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Game           GameRepository
	MarketLine     MarketLineRepository
	TeamSeason     TeamSeasonRepository
	BacktestResult BacktestResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Game:           NewPostgresGameRepository(db),
		MarketLine:     NewPostgresMarketLineRepository(db),
		TeamSeason:     NewPostgresTeamSeasonRepository(db),
		BacktestResult: NewPostgresBacktestResultRepository(db),
	}, nil
}
