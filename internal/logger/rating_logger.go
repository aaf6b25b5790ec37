package logger

import (
	"github.com/sirupsen/logrus"
)

// RatingLogger provides dedicated logging for rating replay.
type RatingLogger struct {
	*logrus.Entry
}

// NewRatingLogger creates a new rating logger.
func NewRatingLogger(baseLogger *logrus.Logger) *RatingLogger {
	return &RatingLogger{
		Entry: baseLogger.WithField("component", "rating"),
	}
}

// LogSeasonRegression logs a season boundary regression.
func (rl *RatingLogger) LogSeasonRegression(season, teams int, carryover float64) {
	rl.WithFields(logrus.Fields{
		"season":    season,
		"teams":     teams,
		"carryover": carryover,
	}).Debug("Ratings regressed to mean")
}

// LogWeekClosed logs snapshots recorded at the end of a week.
func (rl *RatingLogger) LogWeekClosed(season, week, snapshots int) {
	rl.WithFields(logrus.Fields{
		"season":    season,
		"week":      week,
		"snapshots": snapshots,
	}).Trace("Week snapshots recorded")
}
