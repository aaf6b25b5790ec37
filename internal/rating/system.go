// Package rating maintains margin-scaled Elo ratings for a universe of teams.
//
// A System is an explicitly owned state object: every replay builds its own
// instance, so parallel grid-search workers never share rating state.
package rating

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/spread-edge/internal/models"
)

// Change describes the effect of one game on both teams
type Change struct {
	HomeDelta  float64 `json:"home_delta"`
	AwayDelta  float64 `json:"away_delta"`
	Expected   float64 `json:"expected"`
	Multiplier float64 `json:"multiplier"`
}

// System holds live team ratings for a single chronological replay
type System struct {
	cfg   Config
	teams map[string]*models.Team

	regressed       bool
	regressedSeason int
	played          bool
	latestSeason    int
}

// NewSystem creates a rating system from a validated config
func NewSystem(cfg Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &System{
		cfg:   cfg,
		teams: make(map[string]*models.Team),
	}, nil
}

// Config returns the system configuration
func (s *System) Config() Config {
	return s.cfg
}

// Initialize lazily creates a team at the base rating and returns its rating
func (s *System) Initialize(teamID string) float64 {
	return s.team(teamID).Rating
}

func (s *System) team(teamID string) *models.Team {
	if t, ok := s.teams[teamID]; ok {
		return t
	}
	t := &models.Team{ID: teamID, Rating: s.cfg.BaseRating}
	s.teams[teamID] = t
	return t
}

// SetConference attaches a conference label to a team
func (s *System) SetConference(teamID, conference string) {
	s.team(teamID).Conference = conference
}

// Expected returns the home win probability for a rating difference.
// homeAdvantage is in rating points.
func (s *System) Expected(homeRating, awayRating, homeAdvantage float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, -(homeRating-awayRating+homeAdvantage)/s.cfg.Divisor))
}

// MarginMultiplier dampens blowouts; a tied game yields zero
func (s *System) MarginMultiplier(margin int) float64 {
	return math.Log(math.Abs(float64(margin))+1) * s.cfg.MarginConstant
}

// Update applies a home/away result using the configured home advantage
func (s *System) Update(homeID, awayID string, homeScore, awayScore int) Change {
	return s.update(homeID, awayID, homeScore, awayScore, s.cfg.HomeAdvantage)
}

// UpdateNeutral applies a result played at a neutral site
func (s *System) UpdateNeutral(homeID, awayID string, homeScore, awayScore int) Change {
	return s.update(homeID, awayID, homeScore, awayScore, 0)
}

func (s *System) update(homeID, awayID string, homeScore, awayScore int, homeAdvantage float64) Change {
	home := s.team(homeID)
	away := s.team(awayID)

	expected := s.Expected(home.Rating, away.Rating, homeAdvantage)
	actual := 0.5
	switch {
	case homeScore > awayScore:
		actual = 1
	case homeScore < awayScore:
		actual = 0
	}
	mult := s.MarginMultiplier(homeScore - awayScore)
	delta := s.cfg.KFactor * mult * (actual - expected)

	home.Rating += delta
	away.Rating -= delta
	home.GamesPlayed++
	away.GamesPlayed++
	home.SeasonGamesPlayed++
	away.SeasonGamesPlayed++

	return Change{
		HomeDelta:  delta,
		AwayDelta:  -delta,
		Expected:   expected,
		Multiplier: mult,
	}
}

// ApplyGame feeds a completed game into the system and tracks its season
func (s *System) ApplyGame(game models.Game) (Change, error) {
	if !game.Completed() {
		return Change{}, fmt.Errorf("game %s has no final score", game.ID)
	}
	if !s.played || game.Season > s.latestSeason {
		s.latestSeason = game.Season
	}
	s.played = true
	if game.NeutralSite {
		return s.UpdateNeutral(game.HomeTeamID, game.AwayTeamID, *game.HomeScore, *game.AwayScore), nil
	}
	return s.Update(game.HomeTeamID, game.AwayTeamID, *game.HomeScore, *game.AwayScore), nil
}

// RegressToMean pulls every rating toward the base rating by the carryover
// fraction and resets season counters. It is keyed by season: repeated calls
// for the same or an earlier season are no-ops, and a call after games of that
// season were applied returns ErrMidSeasonRegression.
func (s *System) RegressToMean(season int) error {
	if s.regressed && season <= s.regressedSeason {
		return nil
	}
	if s.played && s.latestSeason >= season {
		return fmt.Errorf("%w: season %d", models.ErrMidSeasonRegression, season)
	}
	for _, t := range s.teams {
		t.Rating = s.cfg.BaseRating + s.cfg.Carryover*(t.Rating-s.cfg.BaseRating)
		t.SeasonGamesPlayed = 0
	}
	s.regressed = true
	s.regressedSeason = season
	return nil
}

// Rating returns a team's current rating, initializing unknown teams
func (s *System) Rating(teamID string) float64 {
	return s.team(teamID).Rating
}

// GamesPlayed returns lifetime games for a team
func (s *System) GamesPlayed(teamID string) int {
	return s.team(teamID).GamesPlayed
}

// SeasonGamesPlayed returns games since the last season regression
func (s *System) SeasonGamesPlayed(teamID string) int {
	return s.team(teamID).SeasonGamesPlayed
}

// Ratings returns a copy of all current ratings keyed by team
func (s *System) Ratings() map[string]float64 {
	out := make(map[string]float64, len(s.teams))
	for id, t := range s.teams {
		out[id] = t.Rating
	}
	return out
}

// Teams returns a copy of team state sorted by rating descending, then ID
func (s *System) Teams() []models.Team {
	out := make([]models.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Clone returns an independent deep copy
func (s *System) Clone() *System {
	clone := *s
	clone.teams = make(map[string]*models.Team, len(s.teams))
	for id, t := range s.teams {
		copied := *t
		clone.teams[id] = &copied
	}
	return &clone
}
