package models

import (
	"fmt"
	"time"
)

// Checkpoint labels when a market line was captured
type Checkpoint string

const (
	CheckpointOpen    Checkpoint = "open"
	CheckpointMidweek Checkpoint = "midweek"
	CheckpointClosing Checkpoint = "closing"
)

// Rank orders checkpoints from earliest to latest
func (c Checkpoint) Rank() int {
	switch c {
	case CheckpointOpen:
		return 1
	case CheckpointMidweek:
		return 2
	case CheckpointClosing:
		return 3
	}
	return 0
}

// LineSelector chooses one market line per evaluation context
type LineSelector string

const (
	SelectOpen    LineSelector = "open"
	SelectMidweek LineSelector = "midweek"
	SelectClosing LineSelector = "closing"
	SelectLatest  LineSelector = "latest"
)

// ParseLineSelector validates a selector name
func ParseLineSelector(value string) (LineSelector, error) {
	switch LineSelector(value) {
	case SelectOpen, SelectMidweek, SelectClosing, SelectLatest:
		return LineSelector(value), nil
	}
	return "", fmt.Errorf("%w: unknown line selector %q", ErrInvalidConfiguration, value)
}

// MarketLine represents a recorded spread for a game
type MarketLine struct {
	GameID     string     `db:"game_id" json:"game_id"`
	Checkpoint Checkpoint `db:"checkpoint" json:"checkpoint"`
	CapturedAt time.Time  `db:"captured_at" json:"captured_at"`
	HomeSpread float64    `db:"home_spread" json:"home_spread"`
	HomePrice  *int       `db:"home_price" json:"home_price,omitempty"`
	AwayPrice  *int       `db:"away_price" json:"away_price,omitempty"`
}

// PriceFor returns the American price for a side if recorded
func (l MarketLine) PriceFor(side Side) *int {
	if side == SideHome {
		return l.HomePrice
	}
	return l.AwayPrice
}

// SelectLine picks a single line deterministically. Checkpoint selectors take
// the latest capture of that checkpoint; latest takes the latest capture overall,
// breaking equal times by checkpoint rank. Remaining ties keep the last line in
// input order.
func SelectLine(lines []MarketLine, selector LineSelector) (MarketLine, bool) {
	var (
		best  MarketLine
		found bool
	)
	for _, line := range lines {
		if selector != SelectLatest && line.Checkpoint != Checkpoint(selector) {
			continue
		}
		if !found || !line.CapturedAt.Before(best.CapturedAt) && !laterRank(best, line, selector) {
			best = line
			found = true
		}
	}
	return best, found
}

// laterRank reports whether current must be kept over candidate at equal capture times
func laterRank(current, candidate MarketLine, selector LineSelector) bool {
	if selector != SelectLatest || !current.CapturedAt.Equal(candidate.CapturedAt) {
		return false
	}
	return current.Checkpoint.Rank() > candidate.Checkpoint.Rank()
}
