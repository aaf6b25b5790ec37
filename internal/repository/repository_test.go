package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/spread-edge/internal/database"
	"github.com/yourusername/spread-edge/internal/models"
)

func TestNewRepositoriesRequiresDB(t *testing.T) {
	_, err := NewRepositories(nil)
	assert.Error(t, err)
}

func setupRepos(t *testing.T) (*Repositories, context.Context) {
	t.Helper()
	db := database.SetupTestDB(t)
	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return repos, ctx
}

func score(v int) *int { return &v }

func TestGameRepositoryGetBefore(t *testing.T) {
	repos, ctx := setupRepos(t)

	kickoff := time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)
	games := []models.Game{
		{ID: "2023-02-a", Season: 2023, Week: 2, CommenceTime: kickoff.AddDate(0, 0, 7), HomeTeamID: "KC", AwayTeamID: "DET"},
		{ID: "2023-01-a", Season: 2023, Week: 1, CommenceTime: kickoff, HomeTeamID: "BUF", AwayTeamID: "NYJ", HomeScore: score(16), AwayScore: score(22)},
		{ID: "2022-18-a", Season: 2022, Week: 18, CommenceTime: kickoff.AddDate(-1, 0, 0), HomeTeamID: "KC", AwayTeamID: "LV"},
	}
	require.NoError(t, repos.Game.InsertBatch(ctx, games))

	before := models.SeasonWeek{Season: 2023, Week: 2}
	got, err := repos.Game.GetBefore(ctx, &before)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2022-18-a", got[0].ID)
	assert.Equal(t, "2023-01-a", got[1].ID)
	require.NotNil(t, got[1].HomeScore)
	assert.Equal(t, 16, *got[1].HomeScore)
	assert.Nil(t, got[0].HomeScore)

	all, err := repos.Game.GetBefore(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repos.Game.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMarketLineAndTeamSeason(t *testing.T) {
	repos, ctx := setupRepos(t)

	kickoff := time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)
	game := models.Game{ID: "g1", Season: 2023, Week: 1, CommenceTime: kickoff, HomeTeamID: "KC", AwayTeamID: "DET"}
	require.NoError(t, repos.Game.Upsert(ctx, &game))

	price := -110
	require.NoError(t, repos.MarketLine.InsertBatch(ctx, []models.MarketLine{
		{GameID: "g1", Checkpoint: models.CheckpointClosing, CapturedAt: kickoff.Add(-time.Hour), HomeSpread: -6.5, HomePrice: &price},
		{GameID: "g1", Checkpoint: models.CheckpointOpen, CapturedAt: kickoff.AddDate(0, 0, -6), HomeSpread: -4},
	}))

	lines, err := repos.MarketLine.GetByGameID(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, models.CheckpointOpen, lines[0].Checkpoint)
	require.NotNil(t, lines[1].HomePrice)
	assert.Equal(t, -110, *lines[1].HomePrice)

	info := models.TeamSeasonInfo{TeamID: "KC", Season: 2023, Conference: "AFC West", RosterContinuity: 0.8}
	require.NoError(t, repos.TeamSeason.Upsert(ctx, &info))

	got, err := repos.TeamSeason.Get(ctx, "KC", 2023)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got.RosterContinuity, 1e-9)

	_, err = repos.TeamSeason.Get(ctx, "KC", 2022)
	assert.ErrorIs(t, err, models.ErrNotFound)

	infos, err := repos.TeamSeason.GetBySeasons(ctx, []int{2023})
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestBacktestResultRepository(t *testing.T) {
	repos, ctx := setupRepos(t)

	params, err := json.Marshal(map[string]float64{"k_factor": 20})
	require.NoError(t, err)

	result := &models.BacktestResult{
		ID:             uuid.New(),
		RunDate:        time.Now().UTC().Truncate(time.Second),
		TrainFrom:      "2019-W01",
		TrainTo:        "2022-W22",
		HoldoutFrom:    "2023-W01",
		HoldoutTo:      "2023-W22",
		ParameterHash:  "abc123",
		Candidates:     9,
		HoldoutBets:    120,
		HoldoutWinRate: 0.55,
		HoldoutROI:     0.05,
		Recommendation: "ACCEPT",
		SelectedParams: params,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repos.BacktestResult.SaveResult(ctx, result))

	got, err := repos.BacktestResult.GetByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ParameterHash, got.ParameterHash)
	assert.JSONEq(t, string(params), string(got.SelectedParams))
	assert.Empty(t, got.FullResults)

	recent, err := repos.BacktestResult.GetRecent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	_, err = repos.BacktestResult.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
