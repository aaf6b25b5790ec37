package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BacktestResult represents a persisted backtest run
type BacktestResult struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	RunDate        time.Time       `db:"run_date" json:"run_date"`
	TrainFrom      string          `db:"train_from" json:"train_from"`
	TrainTo        string          `db:"train_to" json:"train_to"`
	HoldoutFrom    string          `db:"holdout_from" json:"holdout_from"`
	HoldoutTo      string          `db:"holdout_to" json:"holdout_to"`
	ParameterHash  string          `db:"parameter_hash" json:"parameter_hash"`
	Candidates     int             `db:"candidates" json:"candidates"`
	HoldoutBets    int             `db:"holdout_bets" json:"holdout_bets"`
	HoldoutWinRate float64         `db:"holdout_win_rate" json:"holdout_win_rate"`
	HoldoutROI     float64         `db:"holdout_roi" json:"holdout_roi"`
	HoldoutCLV     float64         `db:"holdout_clv" json:"holdout_clv"`
	HoldoutBrier   float64         `db:"holdout_brier" json:"holdout_brier"`
	WinRateLower   float64         `db:"win_rate_lower" json:"win_rate_lower"`
	WinRateUpper   float64         `db:"win_rate_upper" json:"win_rate_upper"`
	Recommendation string          `db:"recommendation" json:"recommendation"`
	SelectedParams json.RawMessage `db:"selected_params" json:"selected_params"`
	FullResults    json.RawMessage `db:"full_results" json:"full_results"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
