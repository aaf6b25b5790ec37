package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/spread-edge/internal/backtest"
	"github.com/yourusername/spread-edge/internal/datasource"
	"github.com/yourusername/spread-edge/internal/edge"
	"github.com/yourusername/spread-edge/internal/models"
)

// MockStore mocks the data source store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Games(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error) {
	args := m.Called(ctx, before)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockStore) GamesInWeek(ctx context.Context, season, week int) ([]models.Game, error) {
	args := m.Called(ctx, season, week)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockStore) Lines(ctx context.Context, gameID string) ([]models.MarketLine, error) {
	args := m.Called(ctx, gameID)
	return args.Get(0).([]models.MarketLine), args.Error(1)
}

func (m *MockStore) TeamInfo(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error) {
	args := m.Called(ctx, teamID, season)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamSeasonInfo), args.Error(1)
}

func score(v int) *int { return &v }

var kickoff = time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)

func game(id string, week int, home, away string, homeScore, awayScore *int) models.Game {
	return models.Game{
		ID:           id,
		Season:       2023,
		Week:         week,
		CommenceTime: kickoff.AddDate(0, 0, 7*(week-1)),
		HomeTeamID:   home,
		AwayTeamID:   away,
		HomeScore:    homeScore,
		AwayScore:    awayScore,
	}
}

func newLeague() *datasource.MemoryStore {
	store := datasource.NewMemoryStore()
	store.AddGames(
		game("w1-kc-det", 1, "KC", "DET", score(31), score(10)),
		game("w1-buf-jax", 1, "BUF", "JAX", score(17), score(20)),
		game("w2-kc-jax", 2, "KC", "JAX", nil, nil),
		game("w2-det-buf", 2, "DET", "BUF", nil, nil),
		game("w2-no-line", 2, "NYJ", "MIA", nil, nil),
	)
	for _, team := range []string{"KC", "DET", "BUF", "JAX"} {
		store.AddTeams(models.TeamSeasonInfo{TeamID: team, Season: 2023, RosterContinuity: 1})
	}
	return store
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, store datasource.Store) *LiveService {
	t.Helper()
	svc, err := NewLiveService(store, Options{Params: backtest.DefaultParams()}, quietLogger())
	require.NoError(t, err)
	return svc
}

func TestLiveServiceRequiresRefresh(t *testing.T) {
	svc := newTestService(t, newLeague())

	_, err := svc.Rating("KC")
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = svc.Edges(context.Background(), 2023, 2)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.True(t, svc.BuiltAt().IsZero())
}

func TestNewLiveServiceValidatesInput(t *testing.T) {
	_, err := NewLiveService(nil, Options{Params: backtest.DefaultParams()}, nil)
	assert.Error(t, err)

	params := backtest.DefaultParams()
	params.Projection.Scale = 0
	_, err = NewLiveService(datasource.NewMemoryStore(), Options{Params: params}, nil)
	assert.Error(t, err)
}

func TestLiveServiceRatings(t *testing.T) {
	svc := newTestService(t, newLeague())
	require.NoError(t, svc.Refresh(context.Background()))
	assert.False(t, svc.BuiltAt().IsZero())

	base := backtest.DefaultParams().Rating.BaseRating
	kc, err := svc.Rating("KC")
	require.NoError(t, err)
	det, err := svc.Rating("DET")
	require.NoError(t, err)
	assert.Greater(t, kc, base)
	assert.Less(t, det, base)

	_, err = svc.Rating("NOPE")
	assert.ErrorIs(t, err, models.ErrNotFound)

	preseason, err := svc.RatingAsOf("KC", 2023, 1)
	require.NoError(t, err)
	assert.Equal(t, base, preseason)

	afterWeekOne, err := svc.RatingAsOf("KC", 2023, 2)
	require.NoError(t, err)
	assert.InDelta(t, kc, afterWeekOne, 1e-9)

	all, err := svc.Ratings()
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestLiveServiceProjectionIsCached(t *testing.T) {
	store := newLeague()
	svc := newTestService(t, store)
	require.NoError(t, svc.Refresh(context.Background()))

	g := game("w2-kc-jax", 2, "KC", "JAX", nil, nil)
	first, err := svc.ProjectGame(g)
	require.NoError(t, err)
	second, err := svc.ProjectGame(g)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "w2-kc-jax", first.GameID)

	_, err = svc.ProjectGame(game("w2-no-line", 2, "NYJ", "MIA", nil, nil))
	assert.ErrorIs(t, err, models.ErrMissingRating)
}

func TestLiveServiceEdges(t *testing.T) {
	store := newLeague()
	svc := newTestService(t, store)
	require.NoError(t, svc.Refresh(context.Background()))

	kc, err := svc.ProjectGame(game("w2-kc-jax", 2, "KC", "JAX", nil, nil))
	require.NoError(t, err)
	det, err := svc.ProjectGame(game("w2-det-buf", 2, "DET", "BUF", nil, nil))
	require.NoError(t, err)

	captured := kickoff.AddDate(0, 0, 5)
	store.AddLines(
		models.MarketLine{GameID: "w2-kc-jax", Checkpoint: models.CheckpointClosing, CapturedAt: captured, HomeSpread: kc.ModelSpreadHome + 5},
		models.MarketLine{GameID: "w2-det-buf", Checkpoint: models.CheckpointClosing, CapturedAt: captured, HomeSpread: det.ModelSpreadHome + 0.5},
	)

	edges, err := svc.Edges(context.Background(), 2023, 2)
	require.NoError(t, err)
	require.Len(t, edges, 2)

	assert.Equal(t, "w2-kc-jax", edges[0].GameID)
	assert.True(t, edges[0].Qualifies)
	assert.Equal(t, models.SideHome, edges[0].Side)
	assert.InDelta(t, 5, edges[0].Edge, 1e-9)

	assert.Equal(t, "w2-det-buf", edges[1].GameID)
	assert.False(t, edges[1].Qualifies)
	assert.Equal(t, edge.ReasonEdgeBelowMin, edges[1].Reason)
}

func TestLiveServiceEdgesPropagatesStoreErrors(t *testing.T) {
	store := new(MockStore)
	store.On("Games", mock.Anything, (*models.SeasonWeek)(nil)).Return([]models.Game{}, nil)
	store.On("GamesInWeek", mock.Anything, 2023, 3).Return([]models.Game(nil), errors.New("connection reset"))

	svc := newTestService(t, store)
	require.NoError(t, svc.Refresh(context.Background()))

	_, err := svc.Edges(context.Background(), 2023, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	store.AssertExpectations(t)
}
