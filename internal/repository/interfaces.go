package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/spread-edge/internal/models"
)

// GameRepository defines the interface for game data access
type GameRepository interface {
	Upsert(ctx context.Context, game *models.Game) error
	InsertBatch(ctx context.Context, games []models.Game) error
	GetByID(ctx context.Context, id string) (*models.Game, error)
	// GetBefore returns games strictly before the season-week, or all games when nil.
	GetBefore(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error)
	GetByWeek(ctx context.Context, season, week int) ([]models.Game, error)
}

// MarketLineRepository defines the interface for market line data access
type MarketLineRepository interface {
	Insert(ctx context.Context, line *models.MarketLine) error
	InsertBatch(ctx context.Context, lines []models.MarketLine) error
	GetByGameID(ctx context.Context, gameID string) ([]models.MarketLine, error)
}

// TeamSeasonRepository defines the interface for team season metadata
type TeamSeasonRepository interface {
	Upsert(ctx context.Context, info *models.TeamSeasonInfo) error
	Get(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error)
	GetBySeasons(ctx context.Context, seasons []int) ([]models.TeamSeasonInfo, error)
}

// BacktestResultRepository defines the interface for backtest result access
type BacktestResultRepository interface {
	SaveResult(ctx context.Context, result *models.BacktestResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error)
	GetRecent(ctx context.Context, limit int) ([]*models.BacktestResult, error)
}
