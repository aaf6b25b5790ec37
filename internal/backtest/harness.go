package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/spread-edge/internal/metrics"
	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/odds"
)

// Result is the structured outcome of a backtest
type Result struct {
	RunID       uuid.UUID `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Train       Window    `json:"train"`
	Holdout     Window    `json:"holdout"`

	Selected           Candidate      `json:"selected"`
	Candidates         []Candidate    `json:"candidates"`
	EligibleCandidates int            `json:"eligible_candidates"`
	TrainSummary       Summary        `json:"train_summary"`
	TrainExclusions    map[string]int `json:"train_exclusions"`

	HoldoutSummary    Summary         `json:"holdout_summary"`
	HoldoutExclusions map[string]int  `json:"holdout_exclusions"`
	HoldoutRejections map[string]int  `json:"holdout_rejections"`
	HoldoutBootstrap  BootstrapResult `json:"holdout_bootstrap"`
	HoldoutBets       []models.Bet    `json:"holdout_bets"`
	UnitsCurve        UnitsCurve      `json:"units_curve"`

	WalkForward    *WalkForwardResult `json:"walk_forward,omitempty"`
	BreakEven      float64            `json:"break_even"`
	CompositeScore float64            `json:"composite_score"`
	Recommendation string             `json:"recommendation"`
	Notes          []string           `json:"notes,omitempty"`
}

// RunBacktest validates cfg and runs a full backtest against store
func RunBacktest(ctx context.Context, cfg Config, store GameStore) (*Result, error) {
	engine, err := NewEngine(cfg, logrus.StandardLogger())
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, store)
}

// Run executes search, optional walk-forward and the single holdout evaluation.
// Holdout games are loaded only after the selection is fixed.
func (e *Engine) Run(ctx context.Context, store GameStore) (*Result, error) {
	started := time.Now().UTC()
	result := &Result{
		RunID:     uuid.New(),
		StartedAt: started,
		Train:     e.config.Train,
		Holdout:   e.config.Holdout,
		BreakEven: odds.BreakEven(e.config.Pricing.Payout),
	}
	log := e.log.WithRun(result.RunID.String())

	split := e.config.Split()
	trainData, err := LoadDataset(ctx, store, &split, e.config.Seasons)
	if err != nil {
		metrics.RecordBacktestRun("failure")
		return nil, err
	}
	log.LogReplayStarted(len(trainData.Games), len(e.config.Candidates()), split.String())

	search, err := e.Search(ctx, trainData)
	if err != nil {
		status := "failure"
		if errors.Is(err, models.ErrInsufficientSample) {
			status = ReasonInsufficientSample
		}
		metrics.RecordBacktestRun(status)
		return nil, err
	}
	best, _ := search.Best()
	log.LogSelection(best.Index, best.Hash, search.Eligible, len(search.Candidates), best.Summary.ROI)
	log.LogExclusions("train", best.Exclusions)

	result.Selected = best
	result.Candidates = search.Candidates
	result.EligibleCandidates = search.Eligible
	result.TrainSummary = best.Summary
	result.TrainExclusions = best.Exclusions

	if e.config.WalkForward.Enabled {
		wf, err := e.RunWalkForward(ctx, trainData)
		if err != nil {
			metrics.RecordBacktestRun("failure")
			return nil, err
		}
		result.WalkForward = &wf
	}

	until := e.config.Holdout.To.Next()
	fullData, err := LoadDataset(ctx, store, &until, e.config.Seasons)
	if err != nil {
		metrics.RecordBacktestRun("failure")
		return nil, err
	}
	holdout, summary, err := e.Evaluate(ctx, fullData, best.Params, e.config.Holdout)
	if err != nil {
		metrics.RecordBacktestRun("failure")
		return nil, err
	}
	boot, err := RunBootstrap(ctx, holdout.Bets, e.config.Bootstrap)
	if err != nil {
		metrics.RecordBacktestRun("failure")
		return nil, err
	}

	result.HoldoutSummary = summary
	result.HoldoutExclusions = holdout.Exclusions
	result.HoldoutRejections = holdout.Rejections
	result.HoldoutBootstrap = boot
	result.HoldoutBets = holdout.Bets
	result.UnitsCurve = holdout.Curve
	result.CompositeScore = CalculateCompositeScore(summary)
	result.Recommendation, result.Notes = GenerateRecommendation(RecommendationInput{
		Score:       result.CompositeScore,
		TrainROI:    best.Summary.ROI,
		Holdout:     summary,
		Bootstrap:   boot,
		BreakEven:   result.BreakEven,
		WalkForward: result.WalkForward,
	})
	result.CompletedAt = time.Now().UTC()

	log.LogExclusions("holdout", holdout.Exclusions)
	log.LogHoldoutResult(summary.Bets, summary.Wins, summary.Losses, summary.Pushes,
		summary.ROI, summary.WinRate, boot.WinRate.Lower, boot.WinRate.Upper)

	metrics.RecordExclusions("train", best.Exclusions)
	metrics.RecordExclusions("holdout", holdout.Exclusions)
	metrics.RecordGamesReplayed(holdout.GamesReplayed)
	metrics.UpdateHoldout(summary.ROI, summary.WinRate)
	metrics.RecordBacktestDuration(result.CompletedAt.Sub(started).Seconds())
	metrics.RecordBacktestRun("success")
	return result, nil
}

// Summary returns a one-line description of the result
func (r *Result) Summary() string {
	return fmt.Sprintf("holdout %s: %d bets, %d-%d-%d, win rate %.4f [%.4f, %.4f], ROI %.4f, %s",
		r.Holdout, r.HoldoutSummary.Bets, r.HoldoutSummary.Wins, r.HoldoutSummary.Losses, r.HoldoutSummary.Pushes,
		r.HoldoutSummary.WinRate, r.HoldoutBootstrap.WinRate.Lower, r.HoldoutBootstrap.WinRate.Upper,
		r.HoldoutSummary.ROI, r.Recommendation)
}
