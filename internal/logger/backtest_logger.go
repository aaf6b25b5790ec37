package logger

import (
	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for backtest runs.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// WithRun scopes the logger to a run identifier.
func (bl *BacktestLogger) WithRun(runID string) *BacktestLogger {
	return &BacktestLogger{Entry: bl.WithField("run_id", runID)}
}

// LogReplayStarted logs the start of a run.
func (bl *BacktestLogger) LogReplayStarted(games, candidates int, split string) {
	bl.WithFields(logrus.Fields{
		"games":       games,
		"candidates":  candidates,
		"split_point": split,
	}).Info("Backtest started")
}

// LogPhaseTransition logs a replay state change.
func (bl *BacktestLogger) LogPhaseTransition(from, to, at string) {
	bl.WithFields(logrus.Fields{
		"from": from,
		"to":   to,
		"at":   at,
	}).Debug("Replay phase changed")
}

// LogCandidateEvaluated logs the training outcome of one grid candidate.
func (bl *BacktestLogger) LogCandidateEvaluated(index int, paramHash string, decided int, roi, winRate float64) {
	bl.WithFields(logrus.Fields{
		"candidate":  index,
		"param_hash": paramHash,
		"decided":    decided,
		"roi":        roi,
		"win_rate":   winRate,
	}).Debug("Grid candidate evaluated")
}

// LogCandidateFiltered logs a candidate dropped for too few decided bets.
func (bl *BacktestLogger) LogCandidateFiltered(index, decided, minSample int) {
	bl.WithFields(logrus.Fields{
		"candidate":       index,
		"decided":         decided,
		"min_sample_size": minSample,
		"reason":          "insufficient_sample",
	}).Debug("Grid candidate filtered")
}

// LogSelection logs the chosen configuration.
func (bl *BacktestLogger) LogSelection(index int, paramHash string, eligible, total int, roi float64) {
	bl.WithFields(logrus.Fields{
		"candidate":  index,
		"param_hash": paramHash,
		"eligible":   eligible,
		"total":      total,
		"train_roi":  roi,
	}).Info("Grid search selected configuration")
}

// LogHoldoutResult logs the out-of-sample result.
func (bl *BacktestLogger) LogHoldoutResult(bets, wins, losses, pushes int, roi, winRate, ciLower, ciUpper float64) {
	bl.WithFields(logrus.Fields{
		"bets":           bets,
		"wins":           wins,
		"losses":         losses,
		"pushes":         pushes,
		"roi":            roi,
		"win_rate":       winRate,
		"win_rate_lower": ciLower,
		"win_rate_upper": ciUpper,
	}).Info("Holdout evaluation completed")
}

// LogExclusions logs excluded games by reason.
func (bl *BacktestLogger) LogExclusions(phase string, exclusions map[string]int) {
	if len(exclusions) == 0 {
		return
	}
	fields := logrus.Fields{"phase": phase}
	for reason, count := range exclusions {
		fields[reason] = count
	}
	bl.WithFields(fields).Info("Games excluded from evaluation")
}

// LogWalkForwardWindow logs one walk-forward window.
func (bl *BacktestLogger) LogWalkForwardWindow(window, testSeason int, trainROI, testROI float64) {
	bl.WithFields(logrus.Fields{
		"window":      window,
		"test_season": testSeason,
		"train_roi":   trainROI,
		"test_roi":    testROI,
	}).Info("Walk-forward window evaluated")
}
