package datasource

import (
	"context"
	"fmt"

	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/repository"
)

// PostgresStore reads records through the repositories
type PostgresStore struct {
	games repository.GameRepository
	lines repository.MarketLineRepository
	teams repository.TeamSeasonRepository
}

// NewPostgresStore creates a store over the game, line and team repositories
func NewPostgresStore(repos *repository.Repositories) *PostgresStore {
	return &PostgresStore{
		games: repos.Game,
		lines: repos.MarketLine,
		teams: repos.TeamSeason,
	}
}

// Games returns games strictly before the season-week, or all games when nil
func (s *PostgresStore) Games(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error) {
	return s.games.GetBefore(ctx, before)
}

// GamesInWeek returns one week's games in kickoff order
func (s *PostgresStore) GamesInWeek(ctx context.Context, season, week int) ([]models.Game, error) {
	return s.games.GetByWeek(ctx, season, week)
}

// Lines returns the market lines recorded for a game
func (s *PostgresStore) Lines(ctx context.Context, gameID string) ([]models.MarketLine, error) {
	return s.lines.GetByGameID(ctx, gameID)
}

// TeamInfo returns models.ErrNotFound when no metadata exists
func (s *PostgresStore) TeamInfo(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error) {
	return s.teams.Get(ctx, teamID, season)
}

// ImportSource is a store whose full contents can be copied elsewhere
type ImportSource interface {
	Games(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error)
	Lines(ctx context.Context, gameID string) ([]models.MarketLine, error)
	TeamInfos() []models.TeamSeasonInfo
}

// Import upserts every record of src into the repositories and returns
// the number of games written
func Import(ctx context.Context, src ImportSource, repos *repository.Repositories) (int, error) {
	games, err := src.Games(ctx, nil)
	if err != nil {
		return 0, err
	}
	for i := range games {
		if err := repos.Game.Upsert(ctx, &games[i]); err != nil {
			return i, fmt.Errorf("failed to import game %s: %w", games[i].ID, err)
		}
	}

	for _, g := range games {
		lines, err := src.Lines(ctx, g.ID)
		if err != nil {
			return len(games), fmt.Errorf("failed to read lines for game %s: %w", g.ID, err)
		}
		for i := range lines {
			if err := repos.MarketLine.Insert(ctx, &lines[i]); err != nil {
				return len(games), fmt.Errorf("failed to import line for game %s: %w", g.ID, err)
			}
		}
	}

	infos := src.TeamInfos()
	for i := range infos {
		if err := repos.TeamSeason.Upsert(ctx, &infos[i]); err != nil {
			return len(games), fmt.Errorf("failed to import team %s: %w", infos[i].TeamID, err)
		}
	}
	return len(games), nil
}
