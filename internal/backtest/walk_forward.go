package backtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yourusername/spread-edge/internal/models"
)

// WalkForwardWindow represents one expanding-window season fold
type WalkForwardWindow struct {
	WindowID      int     `json:"window_id"`
	TrainSeasons  []int   `json:"train_seasons"`
	TestSeason    int     `json:"test_season"`
	SelectedIndex int     `json:"selected_index"`
	SelectedHash  string  `json:"selected_hash"`
	TrainSummary  Summary `json:"train_summary"`
	TestSummary   Summary `json:"test_summary"`
	Skipped       bool    `json:"skipped,omitempty"`
	SkippedReason string  `json:"skipped_reason,omitempty"`
}

// WalkForwardResult represents walk-forward validation over the training period
type WalkForwardResult struct {
	Windows          []WalkForwardWindow `json:"windows"`
	AverageTestROI   float64             `json:"average_test_roi"`
	ConsistencyScore float64             `json:"consistency_score"`
	OverfitScore     float64             `json:"overfit_score"`
}

// RunWalkForward repeats the grid search on expanding season folds inside the
// training window. Each fold selects on seasons before the test season and is
// scored on the test season alone. Holdout games are never touched.
func (e *Engine) RunWalkForward(ctx context.Context, ds *Dataset) (WalkForwardResult, error) {
	cfg := e.config.WalkForward
	var seasons []int
	for _, s := range ds.Seasons() {
		if s >= e.config.Train.From.Season && s <= e.config.Train.To.Season {
			seasons = append(seasons, s)
		}
	}

	params := e.config.Candidates()
	windows := []WalkForwardWindow{}
	for k := cfg.MinTrainSeasons; k < len(seasons); k++ {
		if err := ctx.Err(); err != nil {
			return WalkForwardResult{}, err
		}
		test := seasons[k]
		window := WalkForwardWindow{
			WindowID:     len(windows) + 1,
			TrainSeasons: append([]int(nil), seasons[:k]...),
			TestSeason:   test,
		}

		trainWindow := Window{From: e.config.Train.From, To: models.EndOfSeason(seasons[k-1])}
		testWindow := clampWindow(Window{From: models.StartOfSeason(test), To: models.EndOfSeason(test)}, e.config.Train)

		search, err := e.search(ctx, ds.Before(models.StartOfSeason(test)), trainWindow, params, false)
		if errors.Is(err, models.ErrInsufficientSample) {
			window.Skipped = true
			window.SkippedReason = ReasonInsufficientSample
			windows = append(windows, window)
			continue
		}
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("walk-forward window %d: %w", window.WindowID, err)
		}
		best, _ := search.Best()
		window.SelectedIndex = best.Index
		window.SelectedHash = best.Hash
		window.TrainSummary = best.Summary

		_, testSummary, err := e.Evaluate(ctx, ds, best.Params, testWindow)
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("walk-forward window %d: %w", window.WindowID, err)
		}
		window.TestSummary = testSummary
		if !meetsBetThreshold(cfg.MinBets, testSummary) {
			window.Skipped = true
			window.SkippedReason = ReasonInsufficientSample
		}
		e.log.LogWalkForwardWindow(window.WindowID, test, best.Summary.ROI, testSummary.ROI)
		windows = append(windows, window)
	}

	scored := scoredWindows(windows)
	return WalkForwardResult{
		Windows:          windows,
		AverageTestROI:   averageTestROI(scored),
		ConsistencyScore: CalculateConsistency(scored),
		OverfitScore:     calculateOverfitScore(scored),
	}, nil
}

func clampWindow(w, bounds Window) Window {
	if w.From.Before(bounds.From) {
		w.From = bounds.From
	}
	if bounds.To.Before(w.To) {
		w.To = bounds.To
	}
	return w
}

func meetsBetThreshold(minBets int, s Summary) bool {
	return minBets <= 0 || s.Decided() >= minBets
}

func scoredWindows(windows []WalkForwardWindow) []WalkForwardWindow {
	out := make([]WalkForwardWindow, 0, len(windows))
	for _, w := range windows {
		if !w.Skipped {
			out = append(out, w)
		}
	}
	return out
}

// CalculateConsistency calculates the share of profitable test windows
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	profitable := 0
	for _, w := range windows {
		if w.TestSummary.ROI > 0 {
			profitable++
		}
	}
	return float64(profitable) / float64(len(windows))
}

func calculateOverfitScore(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	trainROI := 0.0
	testROI := 0.0
	for _, w := range windows {
		trainROI += w.TrainSummary.ROI
		testROI += w.TestSummary.ROI
	}
	if trainROI == 0 {
		return 0
	}
	return (trainROI - testROI) / trainROI
}

func averageTestROI(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	total := 0.0
	for _, w := range windows {
		total += w.TestSummary.ROI
	}
	return total / float64(len(windows))
}

// ToJSON exports the walk-forward result
func (w WalkForwardResult) ToJSON() string {
	data, _ := json.Marshal(w)
	return string(data)
}
