package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/spread-edge/internal/database"
	"github.com/yourusername/spread-edge/internal/models"
)

// PostgresMarketLineRepository implements MarketLineRepository for PostgreSQL
type PostgresMarketLineRepository struct {
	db *database.DB
}

// NewPostgresMarketLineRepository creates a new market line repository
func NewPostgresMarketLineRepository(db *database.DB) MarketLineRepository {
	return &PostgresMarketLineRepository{db: db}
}

// Insert records a single market line snapshot
func (r *PostgresMarketLineRepository) Insert(ctx context.Context, line *models.MarketLine) error {
	query := `
		INSERT INTO market_lines (game_id, checkpoint, captured_at, home_spread, home_price, away_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, checkpoint, captured_at) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		line.GameID, string(line.Checkpoint), line.CapturedAt, line.HomeSpread, line.HomePrice, line.AwayPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to insert market line: %w", err)
	}
	return nil
}

// InsertBatch bulk loads market lines using COPY
func (r *PostgresMarketLineRepository) InsertBatch(ctx context.Context, lines []models.MarketLine) error {
	if len(lines) == 0 {
		return nil
	}

	columns := []string{"game_id", "checkpoint", "captured_at", "home_spread", "home_price", "away_price"}
	rows := make([][]any, len(lines))
	for i, l := range lines {
		rows[i] = []any{l.GameID, string(l.Checkpoint), l.CapturedAt, l.HomeSpread, l.HomePrice, l.AwayPrice}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"market_lines"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert market lines: %w", err)
	}
	if count != int64(len(lines)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(lines))
	}
	return nil
}

// GetByGameID retrieves every recorded line for a game in capture order
func (r *PostgresMarketLineRepository) GetByGameID(ctx context.Context, gameID string) ([]models.MarketLine, error) {
	query := `
		SELECT game_id, checkpoint, captured_at, home_spread, home_price, away_price
		FROM market_lines
		WHERE game_id = $1
		ORDER BY captured_at ASC
	`

	rows, err := r.db.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query market lines: %w", err)
	}
	defer rows.Close()

	var lines []models.MarketLine
	for rows.Next() {
		var (
			l          models.MarketLine
			checkpoint string
		)
		if err := rows.Scan(&l.GameID, &checkpoint, &l.CapturedAt, &l.HomeSpread, &l.HomePrice, &l.AwayPrice); err != nil {
			return nil, fmt.Errorf("failed to scan market line: %w", err)
		}
		l.Checkpoint = models.Checkpoint(checkpoint)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
