package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/spread-edge/internal/database"
	"github.com/yourusername/spread-edge/internal/models"
)

const (
	errScanBacktestResult = "failed to scan backtest result: %w"
	backtestResultColumns = `id, run_date, train_from, train_to, holdout_from, holdout_to,
		parameter_hash, candidates, holdout_bets, holdout_win_rate, holdout_roi, holdout_clv,
		holdout_brier, win_rate_lower, win_rate_upper, recommendation, selected_params,
		full_results, created_at`
)

// PostgresBacktestResultRepository implements BacktestResultRepository for PostgreSQL
type PostgresBacktestResultRepository struct {
	db *database.DB
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db *database.DB) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

// SaveResult inserts a backtest result
func (r *PostgresBacktestResultRepository) SaveResult(ctx context.Context, result *models.BacktestResult) error {
	query := `
		INSERT INTO backtest_results (` + backtestResultColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`

	_, err := r.db.Exec(ctx, query,
		result.ID, result.RunDate, result.TrainFrom, result.TrainTo, result.HoldoutFrom, result.HoldoutTo,
		result.ParameterHash, result.Candidates, result.HoldoutBets, result.HoldoutWinRate, result.HoldoutROI, result.HoldoutCLV,
		result.HoldoutBrier, result.WinRateLower, result.WinRateUpper, result.Recommendation, []byte(result.SelectedParams),
		nullableJSON(result.FullResults), result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}

// GetByID retrieves a backtest result by ID
func (r *PostgresBacktestResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	query := `SELECT ` + backtestResultColumns + ` FROM backtest_results WHERE id = $1`

	result := &models.BacktestResult{}
	err := scanBacktestResult(r.db.QueryRow(ctx, query, id), result)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest result: %w", err)
	}
	return result, nil
}

// GetRecent retrieves the latest backtest results
func (r *PostgresBacktestResultRepository) GetRecent(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	query := `SELECT ` + backtestResultColumns + ` FROM backtest_results ORDER BY run_date DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest backtest results: %w", err)
	}
	defer rows.Close()

	var results []*models.BacktestResult
	for rows.Next() {
		result := &models.BacktestResult{}
		if err := scanBacktestResult(rows, result); err != nil {
			return nil, fmt.Errorf(errScanBacktestResult, err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanBacktestResult(row pgx.Row, result *models.BacktestResult) error {
	var selected, full []byte
	if err := row.Scan(
		&result.ID, &result.RunDate, &result.TrainFrom, &result.TrainTo, &result.HoldoutFrom, &result.HoldoutTo,
		&result.ParameterHash, &result.Candidates, &result.HoldoutBets, &result.HoldoutWinRate, &result.HoldoutROI, &result.HoldoutCLV,
		&result.HoldoutBrier, &result.WinRateLower, &result.WinRateUpper, &result.Recommendation, &selected,
		&full, &result.CreatedAt,
	); err != nil {
		return err
	}
	result.SelectedParams = selected
	result.FullResults = full
	return nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
