// Package backtest replays game history through the rating, projection and
// qualification pipeline, searching a hyperparameter grid on a training window
// and scoring the selected configuration once on a holdout window.
package backtest

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/spread-edge/internal/edge"
	"github.com/yourusername/spread-edge/internal/logger"
	"github.com/yourusername/spread-edge/internal/metrics"
	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/odds"
	"github.com/yourusername/spread-edge/internal/projection"
	"github.com/yourusername/spread-edge/internal/rating"
	"github.com/yourusername/spread-edge/internal/snapshot"
)

// Engine orchestrates backtesting runs
type Engine struct {
	config    Config
	logger    *logrus.Logger
	log       *logger.BacktestLogger
	ratingLog *logger.RatingLogger
}

// NewEngine creates a new backtesting engine. The config is validated here so
// that a bad grid or contradictory rule set fails before any replay starts.
func NewEngine(cfg Config, log *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		config:    cfg,
		logger:    log,
		log:       logger.NewBacktestLogger(log),
		ratingLog: logger.NewRatingLogger(log),
	}, nil
}

// RateHistory replays every game in ds through a fresh rating system without
// evaluating any bets. The returned run carries the final ratings and snapshots.
func RateHistory(ctx context.Context, ds *Dataset, params Params, log *logrus.Logger) (*Run, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}
	e := &Engine{
		// split beyond any season keeps the replay in the training phase
		config:    Config{Base: params, Holdout: Window{From: models.StartOfSeason(math.MaxInt32)}},
		logger:    log,
		log:       logger.NewBacktestLogger(log),
		ratingLog: logger.NewRatingLogger(log),
	}
	return e.Replay(ctx, ds, params, Window{})
}

// Config returns the backtest configuration
func (e *Engine) Config() Config {
	return e.config
}

// Logger returns the engine logger
func (e *Engine) Logger() *logrus.Logger {
	return e.logger
}

func (e *Engine) workers() int {
	if e.config.Workers > 0 {
		return e.config.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Replay runs every game in ds chronologically through a fresh rating system.
// Ratings are updated for every completed game; bets are evaluated only for
// games inside window.
func (e *Engine) Replay(ctx context.Context, ds *Dataset, params Params, window Window) (*Run, error) {
	start := time.Now()
	sys, err := rating.NewSystem(params.Rating)
	if err != nil {
		return nil, err
	}
	idx := snapshot.NewIndex()
	proj, err := projection.NewProjector(idx, params.Projection)
	if err != nil {
		return nil, err
	}
	qualifier, err := edge.NewQualifier(params.Qualification)
	if err != nil {
		return nil, err
	}

	run := newRun(params, window, e.config.Split(), sys, idx)
	var current *models.SeasonWeek
	for i, game := range ds.Games {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		sw := game.SeasonWeek()
		switch {
		case current == nil:
			if err := e.startSeason(run, ds, sw.Season); err != nil {
				return nil, err
			}
		case sw.Season != current.Season:
			if err := e.closeWeek(run, *current); err != nil {
				return nil, err
			}
			if err := e.startSeason(run, ds, sw.Season); err != nil {
				return nil, err
			}
		case sw.Week != current.Week:
			if err := e.closeWeek(run, *current); err != nil {
				return nil, err
			}
		}
		current = &sw

		if from, changed := run.advance(sw); changed {
			e.log.LogPhaseTransition(string(from), string(run.Phase), sw.String())
		}

		if window.Contains(sw) {
			e.evaluate(run, ds, proj, qualifier, game)
		}

		if game.Completed() {
			if _, err := sys.ApplyGame(game); err != nil {
				return nil, err
			}
			run.GamesReplayed++
		}
	}
	if current != nil {
		if err := e.closeWeek(run, *current); err != nil {
			return nil, err
		}
	}
	run.finish()

	metrics.RecordReplayDuration(time.Since(start).Seconds())
	return run, nil
}

// startSeason regresses ratings, registers teams with metadata for the season
// and records their pre-season snapshots.
func (e *Engine) startSeason(run *Run, ds *Dataset, season int) error {
	if err := run.Ratings.RegressToMean(season); err != nil {
		return err
	}
	for _, info := range ds.SeasonTeams(season) {
		run.Ratings.Initialize(info.TeamID)
		if info.Conference != "" {
			run.Ratings.SetConference(info.TeamID, info.Conference)
		}
	}
	ratings := run.Ratings.Ratings()
	e.ratingLog.LogSeasonRegression(season, len(ratings), run.Ratings.Config().Carryover)
	return run.Snapshots.RecordAllPreseason(season, ratings)
}

// closeWeek records the rating every known team carries out of a week
func (e *Engine) closeWeek(run *Run, sw models.SeasonWeek) error {
	ratings := run.Ratings.Ratings()
	if err := run.Snapshots.RecordAll(sw.Season, sw.Week, ratings); err != nil {
		return err
	}
	e.ratingLog.LogWeekClosed(sw.Season, sw.Week, len(ratings))
	return nil
}

func (e *Engine) evaluate(run *Run, ds *Dataset, proj *projection.Projector, qualifier *edge.Qualifier, game models.Game) {
	run.GamesEvaluated++

	p, err := proj.ProjectGame(game)
	if err != nil {
		run.exclude(ExclusionMissingRating)
		return
	}
	lines := ds.Lines[game.ID]
	line, ok := models.SelectLine(lines, e.config.BetLine)
	if !ok {
		run.exclude(ExclusionMissingMarketLine)
		return
	}
	if !game.Completed() {
		run.exclude(ExclusionMissingResult)
		return
	}

	c := edge.NewCandidate(game, p, line.HomeSpread)
	c.HomeGames = run.Ratings.SeasonGamesPlayed(game.HomeTeamID)
	c.AwayGames = run.Ratings.SeasonGamesPlayed(game.AwayTeamID)
	c.Home = ds.TeamInfo(game.HomeTeamID, game.Season)
	c.Away = ds.TeamInfo(game.AwayTeamID, game.Season)

	verdict := qualifier.Qualify(c)
	if !verdict.Qualifies {
		run.reject(verdict.Reason)
		return
	}
	run.record(e.grade(verdict, game, line, lines))
}

// grade settles a qualified bet against the final score
func (e *Engine) grade(v edge.Verdict, game models.Game, line models.MarketLine, lines []models.MarketLine) models.Bet {
	side := v.Result.Side
	margin := game.HomeMargin()

	bet := models.Bet{
		GameID:           game.ID,
		Season:           game.Season,
		Week:             game.Week,
		Side:             side,
		MarketSpreadHome: line.HomeSpread,
		ModelSpreadHome:  v.ModelSpreadHome,
		BetSpread:        SideSpread(side, line.HomeSpread),
		Price:            line.PriceFor(side),
		Edge:             v.Result.Edge,
		EffectiveEdge:    v.EffectiveEdge,
		Uncertainty:      v.Uncertainty,
		HomeMargin:       margin,
		Result:           GradeSpread(side, margin, line.HomeSpread),
	}

	payout, priced := e.payout(bet.Price)
	switch bet.Result {
	case models.BetResultWin:
		bet.Profit = payout
	case models.BetResultLoss:
		bet.Profit = -1
	}

	if closing, ok := models.SelectLine(lines, models.SelectClosing); ok {
		cs := SideSpread(side, closing.HomeSpread)
		clv := bet.BetSpread - cs
		bet.ClosingSpread = &cs
		bet.CLV = &clv
	}

	bet.CoverProbability = odds.CoverProbability(v.SelectionEdge(), e.config.CoverSigma)
	bet.MarketProbability = odds.BreakEven(payout)
	if priced {
		if p, err := odds.ImpliedProbability(*bet.Price); err == nil {
			bet.MarketProbability = p
		}
	}
	return bet
}

// payout returns the per-unit win payout and whether it came from a price
func (e *Engine) payout(price *int) (float64, bool) {
	if e.config.Pricing.UsePrices && price != nil {
		if p, err := odds.Payout(*price); err == nil {
			return p, true
		}
	}
	return e.config.Pricing.Payout, false
}

// SideSpread expresses a home spread from the perspective of side
func SideSpread(side models.Side, homeSpread float64) float64 {
	if side == models.SideHome {
		return homeSpread
	}
	return -homeSpread
}

// GradeSpread grades a spread bet. The bet pushes when the home margin exactly
// offsets the home spread.
func GradeSpread(side models.Side, homeMargin int, homeSpread float64) models.BetResult {
	v := float64(homeMargin) + homeSpread
	switch {
	case v == 0:
		return models.BetResultPush
	case (v > 0) == (side == models.SideHome):
		return models.BetResultWin
	}
	return models.BetResultLoss
}

// Evaluate runs one configuration over a window and summarizes it
func (e *Engine) Evaluate(ctx context.Context, ds *Dataset, params Params, window Window) (*Run, Summary, error) {
	run, err := e.Replay(ctx, ds, params, window)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("replay %s: %w", window, err)
	}
	return run, Summarize(run.Bets, e.summaryOptions()), nil
}

func (e *Engine) summaryOptions() SummaryOptions {
	return SummaryOptions{
		EdgeBuckets:     e.config.EdgeBuckets,
		MinBucketSample: e.config.MinBucketSample,
		CalibrationBins: e.config.CalibrationBins,
	}
}
