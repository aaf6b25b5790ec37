package backtest

import (
	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/rating"
	"github.com/yourusername/spread-edge/internal/snapshot"
)

// Phase is the replay state. It depends only on where a game falls relative
// to the fixed split point.
type Phase string

const (
	PhaseReplayingTrain   Phase = "replaying_train"
	PhaseReplayingHoldout Phase = "replaying_holdout"
	PhaseScored           Phase = "scored"
)

// Exclusion reasons for games that could not be evaluated
const (
	ExclusionMissingRating     = "missing_rating"
	ExclusionMissingMarketLine = "missing_market_line"
	ExclusionMissingResult     = "missing_result"
)

// Run is the explicit state of one chronological replay
type Run struct {
	Params Params            `json:"params"`
	Window Window            `json:"window"`
	Split  models.SeasonWeek `json:"split"`
	Phase  Phase             `json:"phase"`

	Bets           []models.Bet   `json:"bets"`
	Exclusions     map[string]int `json:"exclusions"`
	Rejections     map[string]int `json:"rejections"`
	GamesReplayed  int            `json:"games_replayed"`
	GamesEvaluated int            `json:"games_evaluated"`
	Curve          UnitsCurve     `json:"curve"`

	Ratings   *rating.System  `json:"-"`
	Snapshots *snapshot.Index `json:"-"`
}

func newRun(params Params, window Window, split models.SeasonWeek, sys *rating.System, idx *snapshot.Index) *Run {
	return &Run{
		Params:     params,
		Window:     window,
		Split:      split,
		Phase:      PhaseReplayingTrain,
		Bets:       []models.Bet{},
		Exclusions: make(map[string]int),
		Rejections: make(map[string]int),
		Ratings:    sys,
		Snapshots:  idx,
	}
}

// advance moves the phase for a game at sw and reports whether it changed
func (r *Run) advance(sw models.SeasonWeek) (Phase, bool) {
	prev := r.Phase
	if r.Phase == PhaseReplayingTrain && !sw.Before(r.Split) {
		r.Phase = PhaseReplayingHoldout
	}
	return prev, prev != r.Phase
}

func (r *Run) exclude(reason string) {
	r.Exclusions[reason]++
}

func (r *Run) reject(reason string) {
	r.Rejections[reason]++
}

// record appends a graded bet and extends the units curve
func (r *Run) record(bet models.Bet) {
	r.Bets = append(r.Bets, bet)
	r.Curve = r.Curve.Append(bet)
}

func (r *Run) finish() {
	r.Phase = PhaseScored
}
