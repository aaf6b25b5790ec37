package models

import (
	"fmt"
	"math"
	"time"
)

// SeasonWeek identifies a week within a season
type SeasonWeek struct {
	Season int `json:"season" yaml:"season" mapstructure:"season"`
	Week   int `json:"week" yaml:"week" mapstructure:"week"`
}

// StartOfSeason returns the earliest point of a season
func StartOfSeason(season int) SeasonWeek {
	return SeasonWeek{Season: season, Week: 0}
}

// EndOfSeason returns the latest point of a season
func EndOfSeason(season int) SeasonWeek {
	return SeasonWeek{Season: season, Week: math.MaxInt32}
}

// Next returns the season-week immediately after s
func (s SeasonWeek) Next() SeasonWeek {
	if s.Week >= math.MaxInt32 {
		return StartOfSeason(s.Season + 1)
	}
	return SeasonWeek{Season: s.Season, Week: s.Week + 1}
}

// Compare returns -1, 0 or 1 ordering by season then week
func (s SeasonWeek) Compare(o SeasonWeek) int {
	switch {
	case s.Season < o.Season:
		return -1
	case s.Season > o.Season:
		return 1
	case s.Week < o.Week:
		return -1
	case s.Week > o.Week:
		return 1
	}
	return 0
}

// Before reports whether s is strictly earlier than o
func (s SeasonWeek) Before(o SeasonWeek) bool {
	return s.Compare(o) < 0
}

func (s SeasonWeek) String() string {
	return fmt.Sprintf("%d-W%02d", s.Season, s.Week)
}

// Game represents an immutable historical or scheduled game
type Game struct {
	ID           string    `db:"id" json:"id"`
	Season       int       `db:"season" json:"season"`
	Week         int       `db:"week" json:"week"`
	CommenceTime time.Time `db:"commence_time" json:"commence_time"`
	HomeTeamID   string    `db:"home_team_id" json:"home_team_id"`
	AwayTeamID   string    `db:"away_team_id" json:"away_team_id"`
	HomeScore    *int      `db:"home_score" json:"home_score,omitempty"`
	AwayScore    *int      `db:"away_score" json:"away_score,omitempty"`
	NeutralSite  bool      `db:"neutral_site" json:"neutral_site"`
}

// SeasonWeek returns the game's position on the season calendar
func (g Game) SeasonWeek() SeasonWeek {
	return SeasonWeek{Season: g.Season, Week: g.Week}
}

// Completed checks if a final score is recorded
func (g Game) Completed() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// HomeMargin returns home score minus away score; zero when not completed
func (g Game) HomeMargin() int {
	if !g.Completed() {
		return 0
	}
	return *g.HomeScore - *g.AwayScore
}

// Less orders games chronologically with deterministic tie-breaks
func (g Game) Less(o Game) bool {
	if c := g.SeasonWeek().Compare(o.SeasonWeek()); c != 0 {
		return c < 0
	}
	if !g.CommenceTime.Equal(o.CommenceTime) {
		return g.CommenceTime.Before(o.CommenceTime)
	}
	return g.ID < o.ID
}
