package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/spread-edge/internal/database"
	"github.com/yourusername/spread-edge/internal/models"
)

// PostgresTeamSeasonRepository implements TeamSeasonRepository for PostgreSQL
type PostgresTeamSeasonRepository struct {
	db *database.DB
}

// NewPostgresTeamSeasonRepository creates a new team season repository
func NewPostgresTeamSeasonRepository(db *database.DB) TeamSeasonRepository {
	return &PostgresTeamSeasonRepository{db: db}
}

// Upsert inserts or replaces a team's season metadata
func (r *PostgresTeamSeasonRepository) Upsert(ctx context.Context, info *models.TeamSeasonInfo) error {
	query := `
		INSERT INTO team_seasons (team_id, season, conference, roster_continuity, key_player_transition)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id, season) DO UPDATE SET
			conference = EXCLUDED.conference,
			roster_continuity = EXCLUDED.roster_continuity,
			key_player_transition = EXCLUDED.key_player_transition
	`

	_, err := r.db.Exec(ctx, query,
		info.TeamID, info.Season, info.Conference, info.RosterContinuity, info.KeyPlayerTransition,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert team season: %w", err)
	}
	return nil
}

// Get retrieves one team's metadata for a season
func (r *PostgresTeamSeasonRepository) Get(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error) {
	query := `
		SELECT team_id, season, conference, roster_continuity, key_player_transition
		FROM team_seasons WHERE team_id = $1 AND season = $2
	`

	info := &models.TeamSeasonInfo{}
	err := r.db.QueryRow(ctx, query, teamID, season).Scan(
		&info.TeamID, &info.Season, &info.Conference, &info.RosterContinuity, &info.KeyPlayerTransition,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team season: %w", err)
	}
	return info, nil
}

// GetBySeasons retrieves metadata for every team in the given seasons
func (r *PostgresTeamSeasonRepository) GetBySeasons(ctx context.Context, seasons []int) ([]models.TeamSeasonInfo, error) {
	query := `
		SELECT team_id, season, conference, roster_continuity, key_player_transition
		FROM team_seasons WHERE season = ANY($1)
		ORDER BY season, team_id
	`

	rows, err := r.db.Query(ctx, query, seasons)
	if err != nil {
		return nil, fmt.Errorf("failed to query team seasons: %w", err)
	}
	defer rows.Close()

	var infos []models.TeamSeasonInfo
	for rows.Next() {
		var info models.TeamSeasonInfo
		if err := rows.Scan(&info.TeamID, &info.Season, &info.Conference, &info.RosterContinuity, &info.KeyPlayerTransition); err != nil {
			return nil, fmt.Errorf("failed to scan team season: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
