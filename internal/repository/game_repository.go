package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/spread-edge/internal/database"
	"github.com/yourusername/spread-edge/internal/models"
)

const (
	errScanGame  = "failed to scan game: %w"
	gameColumns  = "id, season, week, commence_time, home_team_id, away_team_id, home_score, away_score, neutral_site"
	gameOrdering = "ORDER BY season, week, commence_time, id"
)

// PostgresGameRepository implements GameRepository for PostgreSQL
type PostgresGameRepository struct {
	db *database.DB
}

// NewPostgresGameRepository creates a new game repository
func NewPostgresGameRepository(db *database.DB) GameRepository {
	return &PostgresGameRepository{db: db}
}

// Upsert inserts a game or updates its schedule and scores
func (r *PostgresGameRepository) Upsert(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			season = EXCLUDED.season, week = EXCLUDED.week, commence_time = EXCLUDED.commence_time,
			home_team_id = EXCLUDED.home_team_id, away_team_id = EXCLUDED.away_team_id,
			home_score = EXCLUDED.home_score, away_score = EXCLUDED.away_score,
			neutral_site = EXCLUDED.neutral_site
	`

	_, err := r.db.Exec(ctx, query,
		game.ID, game.Season, game.Week, game.CommenceTime, game.HomeTeamID, game.AwayTeamID,
		game.HomeScore, game.AwayScore, game.NeutralSite,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}
	return nil
}

// InsertBatch bulk loads games using COPY
func (r *PostgresGameRepository) InsertBatch(ctx context.Context, games []models.Game) error {
	if len(games) == 0 {
		return nil
	}

	columns := []string{"id", "season", "week", "commence_time", "home_team_id", "away_team_id", "home_score", "away_score", "neutral_site"}
	rows := make([][]any, len(games))
	for i, g := range games {
		rows[i] = []any{g.ID, g.Season, g.Week, g.CommenceTime, g.HomeTeamID, g.AwayTeamID, g.HomeScore, g.AwayScore, g.NeutralSite}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"games"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert games: %w", err)
	}
	if count != int64(len(games)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(games))
	}
	return nil
}

// GetByID retrieves a game by ID
func (r *PostgresGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game := &models.Game{}
	err := scanGame(r.db.QueryRow(ctx, query, id), game)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// GetBefore retrieves games strictly before the season-week in chronological order
func (r *PostgresGameRepository) GetBefore(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if before == nil {
		rows, err = r.db.Query(ctx, `SELECT `+gameColumns+` FROM games `+gameOrdering)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+gameColumns+` FROM games WHERE (season, week) < ($1, $2) `+gameOrdering,
			before.Season, before.Week)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	return collectGames(rows)
}

// GetByWeek retrieves the games scheduled in one season-week
func (r *PostgresGameRepository) GetByWeek(ctx context.Context, season, week int) ([]models.Game, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gameColumns+` FROM games WHERE season = $1 AND week = $2 `+gameOrdering,
		season, week)
	if err != nil {
		return nil, fmt.Errorf("failed to query games by week: %w", err)
	}
	return collectGames(rows)
}

func collectGames(rows pgx.Rows) ([]models.Game, error) {
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		var g models.Game
		if err := scanGame(rows, &g); err != nil {
			return nil, fmt.Errorf(errScanGame, err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func scanGame(row pgx.Row, g *models.Game) error {
	return row.Scan(
		&g.ID, &g.Season, &g.Week, &g.CommenceTime, &g.HomeTeamID, &g.AwayTeamID,
		&g.HomeScore, &g.AwayScore, &g.NeutralSite,
	)
}
