package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/spread-edge/internal/models"
)

// ExportToJSON writes the full result to a JSON file
func ExportToJSON(result *Result, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// ToModel converts a result into its persisted form
func (r *Result) ToModel() models.BacktestResult {
	return models.BacktestResult{
		ID:             r.RunID,
		RunDate:        r.StartedAt,
		TrainFrom:      r.Train.From.String(),
		TrainTo:        r.Train.To.String(),
		HoldoutFrom:    r.Holdout.From.String(),
		HoldoutTo:      r.Holdout.To.String(),
		ParameterHash:  r.Selected.Hash,
		Candidates:     len(r.Candidates),
		HoldoutBets:    r.HoldoutSummary.Bets,
		HoldoutWinRate: r.HoldoutSummary.WinRate,
		HoldoutROI:     r.HoldoutSummary.ROI,
		HoldoutCLV:     r.HoldoutSummary.AverageCLV,
		HoldoutBrier:   r.HoldoutSummary.Brier,
		WinRateLower:   r.HoldoutBootstrap.WinRate.Lower,
		WinRateUpper:   r.HoldoutBootstrap.WinRate.Upper,
		Recommendation: r.Recommendation,
		SelectedParams: mustMarshalJSON(r.Selected.Params),
		FullResults:    mustMarshalJSON(r),
		CreatedAt:      time.Now().UTC(),
	}
}

// ResultWriter persists backtest results
type ResultWriter interface {
	SaveResult(ctx context.Context, result *models.BacktestResult) error
}

// ExportToDatabase persists a backtest result
func ExportToDatabase(ctx context.Context, result *Result, repo ResultWriter) error {
	if repo == nil {
		return fmt.Errorf("backtest result repository is required")
	}
	if result == nil {
		return fmt.Errorf("result is required")
	}
	model := result.ToModel()
	return repo.SaveResult(ctx, &model)
}

func mustMarshalJSON(value any) json.RawMessage {
	data, _ := json.Marshal(value)
	return data
}
