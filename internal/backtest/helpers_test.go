package backtest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/spread-edge/internal/models"
)

const (
	teamsPerLeague = 10
	gamesPerWeek   = teamsPerLeague / 2
	marketSpread   = 3.0
	openSpread     = 3.5
)

type fakeStore struct {
	games []models.Game
	lines map[string][]models.MarketLine
	info  map[infoKey]*models.TeamSeasonInfo
}

func (s *fakeStore) Games(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error) {
	out := make([]models.Game, 0, len(s.games))
	for _, g := range s.games {
		if before != nil && !g.SeasonWeek().Before(*before) {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *fakeStore) Lines(ctx context.Context, gameID string) ([]models.MarketLine, error) {
	return s.lines[gameID], nil
}

func (s *fakeStore) TeamInfo(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error) {
	info, ok := s.info[infoKey{teamID, season}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return info, nil
}

// recordingStore wraps a fakeStore and records every call in order
type recordingStore struct {
	mock.Mock
	inner *fakeStore
}

func newRecordingStore(inner *fakeStore) *recordingStore {
	s := &recordingStore{inner: inner}
	s.On("Games", mock.Anything).Return()
	s.On("Lines", mock.Anything).Return()
	s.On("TeamInfo", mock.Anything, mock.Anything).Return()
	return s
}

func (s *recordingStore) Games(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error) {
	var arg *models.SeasonWeek
	if before != nil {
		sw := *before
		arg = &sw
	}
	s.Called(arg)
	return s.inner.Games(ctx, before)
}

func (s *recordingStore) Lines(ctx context.Context, gameID string) ([]models.MarketLine, error) {
	s.Called(gameID)
	return s.inner.Lines(ctx, gameID)
}

func (s *recordingStore) TeamInfo(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error) {
	s.Called(teamID, season)
	return s.inner.TeamInfo(ctx, teamID, season)
}

// outcomeFunc returns the final score for the i-th game of the league
type outcomeFunc func(i int) (home, away int)

// plantedOutcome covers a +3 home spread in three of every four games
func plantedOutcome(i int) (int, int) {
	if i%4 == 3 {
		return 14, 21
	}
	return 27, 17
}

func pushOutcome(int) (int, int) {
	return 17, 20
}

// buildLeague generates a round-robin style league where every team plays once
// a week and every game carries an open and a closing home spread.
func buildLeague(seasons []int, weeks int, outcome outcomeFunc, withInfo bool) *fakeStore {
	s := &fakeStore{
		lines: make(map[string][]models.MarketLine),
		info:  make(map[infoKey]*models.TeamSeasonInfo),
	}
	i := 0
	for _, season := range seasons {
		if withInfo {
			for t := 0; t < teamsPerLeague; t++ {
				id := teamID(t)
				s.info[infoKey{id, season}] = &models.TeamSeasonInfo{TeamID: id, Season: season, RosterContinuity: 1}
			}
		}
		opening := time.Date(season, time.September, 7, 18, 0, 0, 0, time.UTC)
		for week := 1; week <= weeks; week++ {
			for j := 0; j < gamesPerWeek; j++ {
				home, away := outcome(i)
				g := models.Game{
					ID:           gameID(season, week, j),
					Season:       season,
					Week:         week,
					CommenceTime: opening.AddDate(0, 0, 7*(week-1)).Add(time.Duration(j) * time.Hour),
					HomeTeamID:   teamID((j + week) % teamsPerLeague),
					AwayTeamID:   teamID((j + week + gamesPerWeek) % teamsPerLeague),
					HomeScore:    intPtr(home),
					AwayScore:    intPtr(away),
				}
				s.games = append(s.games, g)
				s.lines[g.ID] = []models.MarketLine{
					{GameID: g.ID, Checkpoint: models.CheckpointOpen, CapturedAt: g.CommenceTime.AddDate(0, 0, -6), HomeSpread: openSpread},
					{GameID: g.ID, Checkpoint: models.CheckpointClosing, CapturedAt: g.CommenceTime.Add(-time.Hour), HomeSpread: marketSpread},
				}
				i++
			}
		}
	}
	return s
}

func teamID(i int) string {
	return fmt.Sprintf("T%02d", i)
}

func gameID(season, week, j int) string {
	return fmt.Sprintf("%d-%02d-%d", season, week, j)
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func sw(season, week int) models.SeasonWeek {
	return models.SeasonWeek{Season: season, Week: week}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// singleSeasonConfig trains on weeks 1-10 of 2023 and holds out weeks 11-20
func singleSeasonConfig() Config {
	cfg := DefaultConfig()
	cfg.Train = Window{From: sw(2023, 1), To: sw(2023, 10)}
	cfg.Holdout = Window{From: sw(2023, 11), To: sw(2023, 20)}
	cfg.Grid = Grid{KFactor: []float64{0.5, 1}}
	cfg.MinSampleSize = 20
	cfg.Bootstrap = BootstrapConfig{Iterations: 500, Seed: 7, Confidence: 0.95}
	cfg.Workers = 2
	return cfg
}

func newTestEngine(cfg Config) (*Engine, error) {
	return NewEngine(cfg, quietLogger())
}

func testBet(edge float64, result models.BetResult, profit float64) models.Bet {
	return models.Bet{
		GameID:           fmt.Sprintf("g-%.2f-%s", edge, result),
		Side:             models.SideHome,
		Edge:             edge,
		EffectiveEdge:    edge,
		CoverProbability: 0.6,
		Result:           result,
		Profit:           profit,
	}
}
