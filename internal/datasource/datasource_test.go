package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/spread-edge/internal/backtest"
	"github.com/yourusername/spread-edge/internal/config"
	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/season"
)

const gamesCSV = `id,season,week,commence_time,home_team,away_team,home_score,away_score,neutral_site
2023-01-KC-DET,2023,1,2023-09-08T00:20:00Z,KC,DET,20,21,false
2023-01-BUF-NYJ,,,2023-09-11T20:15:00Z,NYJ,BUF,22,16,
2023-02-KC-JAX,2023,2,2023-09-17T17:00:00Z,JAX,KC,,,
`

const linesCSV = `game_id,checkpoint,captured_at,home_spread,home_price,away_price
2023-01-KC-DET,closing,2023-09-07T23:00:00Z,-6.5,-110,-110
2023-01-KC-DET,OPEN,2023-09-01T12:00:00Z,-4,,
2023-01-BUF-NYJ,closing,2023-09-11T19:00:00Z,2.5,,
unknown-game,closing,2023-09-11T23:00:00Z,1,,
`

const teamsCSV = `team_id,season,conference,roster_continuity,key_player_transition
KC,2023,AFC West,0.85,false
NYJ,2023,AFC East,,true
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseGames(t *testing.T) {
	games, err := ParseGames("games.csv", strings.NewReader(gamesCSV), season.NFL())
	require.NoError(t, err)
	require.Len(t, games, 3)

	assert.Equal(t, "KC", games[0].HomeTeamID)
	require.True(t, games[0].Completed())
	assert.Equal(t, -1, games[0].HomeMargin())

	// blank season and week are derived from kickoff
	assert.Equal(t, models.SeasonWeek{Season: 2023, Week: 1}, games[1].SeasonWeek())

	assert.False(t, games[2].Completed())
	assert.Nil(t, games[2].HomeScore)
}

func TestParseGamesErrors(t *testing.T) {
	header := "id,season,week,commence_time,home_team,away_team,home_score,away_score\n"
	tests := []struct {
		name string
		body string
	}{
		{"missing column", "id,season,week,home_team,away_team\n"},
		{"self play", header + "g1,2023,1,2023-09-10T17:00:00Z,KC,KC,,\n"},
		{"duplicate id", header + "g1,2023,1,2023-09-10T17:00:00Z,KC,DET,,\ng1,2023,1,2023-09-10T17:00:00Z,KC,DET,,\n"},
		{"one score", header + "g1,2023,1,2023-09-10T17:00:00Z,KC,DET,21,\n"},
		{"negative score", header + "g1,2023,1,2023-09-10T17:00:00Z,KC,DET,-3,7\n"},
		{"bad time", header + "g1,2023,1,10/09/2023,KC,DET,,\n"},
		{"bad week", header + "g1,2023,one,2023-09-10T17:00:00Z,KC,DET,,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGames("games.csv", strings.NewReader(tt.body), season.NFL())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidData)
		})
	}
}

func TestParseGamesWithoutCalendar(t *testing.T) {
	body := "id,commence_time,home_team,away_team\ng1,2023-09-10T17:00:00Z,KC,DET\n"
	_, err := ParseGames("games.csv", strings.NewReader(body), nil)
	assert.Error(t, err)
}

func TestParseLines(t *testing.T) {
	lines, err := ParseLines("lines.csv", strings.NewReader(linesCSV))
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.Equal(t, models.CheckpointClosing, lines[0].Checkpoint)
	require.NotNil(t, lines[0].HomePrice)
	assert.Equal(t, -110, *lines[0].HomePrice)
	assert.Equal(t, models.CheckpointOpen, lines[1].Checkpoint)
	assert.Nil(t, lines[1].HomePrice)
	assert.InDelta(t, -4.0, lines[1].HomeSpread, 1e-9)
}

func TestParseLinesReportsLine(t *testing.T) {
	body := "game_id,checkpoint,captured_at,home_spread\ng1,closing,2023-09-10T12:00:00Z,-3\ng1,kickoff,2023-09-10T12:00:00Z,-3\n"
	_, err := ParseLines("lines.csv", strings.NewReader(body))
	require.Error(t, err)

	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, 3, dsErr.Line)
	assert.Equal(t, ErrCodeInvalidData, dsErr.Code)
	assert.Contains(t, err.Error(), "lines.csv:3")
}

func TestParseTeams(t *testing.T) {
	infos, err := ParseTeams("teams.csv", strings.NewReader(teamsCSV))
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.InDelta(t, 0.85, infos[0].RosterContinuity, 1e-9)
	assert.InDelta(t, 1.0, infos[1].RosterContinuity, 1e-9)
	assert.True(t, infos[1].KeyPlayerTransition)

	_, err = ParseTeams("teams.csv", strings.NewReader("team_id,season,roster_continuity\nKC,2023,1.5\n"))
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	games, err := ParseGames("games.csv", strings.NewReader(gamesCSV), season.NFL())
	require.NoError(t, err)
	lines, err := ParseLines("lines.csv", strings.NewReader(linesCSV))
	require.NoError(t, err)

	store := NewMemoryStore()
	store.AddGames(games[2], games[0], games[1])
	store.AddLines(lines...)
	store.AddTeams(models.TeamSeasonInfo{TeamID: "KC", Season: 2023, RosterContinuity: 0.9})
	assert.Equal(t, 3, store.Len())

	before := models.SeasonWeek{Season: 2023, Week: 2}
	got, err := store.Games(ctx, &before)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2023-01-KC-DET", got[0].ID)
	assert.Equal(t, "2023-01-BUF-NYJ", got[1].ID)

	week, err := store.GamesInWeek(ctx, 2023, 2)
	require.NoError(t, err)
	require.Len(t, week, 1)
	assert.Equal(t, "2023-02-KC-JAX", week[0].ID)

	gameLines, err := store.Lines(ctx, "2023-01-KC-DET")
	require.NoError(t, err)
	require.Len(t, gameLines, 2)
	assert.Equal(t, models.CheckpointOpen, gameLines[0].Checkpoint)
	gameLines[0].HomeSpread = 99
	again, _ := store.Lines(ctx, "2023-01-KC-DET")
	assert.InDelta(t, -4.0, again[0].HomeSpread, 1e-9)

	_, err = store.TeamInfo(ctx, "DET", 2023)
	assert.ErrorIs(t, err, models.ErrNotFound)
	info, err := store.TeamInfo(ctx, "KC", 2023)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, info.RosterContinuity, 1e-9)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Games(cancelled, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreFeedsBacktestDataset(t *testing.T) {
	games, err := ParseGames("games.csv", strings.NewReader(gamesCSV), season.NFL())
	require.NoError(t, err)
	store := NewMemoryStore()
	store.AddGames(games...)

	var _ backtest.GameStore = store
	ds, err := backtest.LoadDataset(context.Background(), store, nil, []int{2023})
	require.NoError(t, err)
	assert.Len(t, ds.Games, 3)
}

func TestLoaderLoadFiles(t *testing.T) {
	dir := t.TempDir()
	files := Files{
		GamesPath: writeFile(t, dir, "games.csv", gamesCSV),
		LinesPath: writeFile(t, dir, "lines.csv", linesCSV),
		TeamsPath: writeFile(t, dir, "teams.csv", teamsCSV),
	}

	store, err := NewLoader(season.NFL(), nil, nil).Load(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	orphan, err := store.Lines(context.Background(), "unknown-game")
	require.NoError(t, err)
	assert.Empty(t, orphan)

	_, err = store.TeamInfo(context.Background(), "NYJ", 2023)
	assert.NoError(t, err)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader(season.NFL(), nil, nil).Load(context.Background(), Files{
		GamesPath: filepath.Join(t.TempDir(), "missing.csv"),
	})
	require.Error(t, err)

	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeNotFound, dsErr.Code)
}

func testHTTPClient() *RateLimitedHTTPClient {
	return NewRateLimitedHTTPClient(HTTPClientConfig{
		Timeout:           2 * time.Second,
		MaxRetries:        0,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      2 * time.Millisecond,
		RateLimit:         1000,
		CircuitBreakerMax: 1,
	}, nil)
}

func TestLoaderRemoteFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/games.csv":
			w.Write([]byte(gamesCSV))
		case "/lines.csv":
			w.Write([]byte(linesCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(season.NFL(), testHTTPClient(), nil)
	store, err := loader.Load(context.Background(), Files{
		GamesPath: server.URL + "/games.csv",
		LinesPath: server.URL + "/lines.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	_, err = loader.Load(context.Background(), Files{
		GamesPath: server.URL + "/games.csv",
		LinesPath: server.URL + "/missing.csv",
	})
	var dsErr DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, ErrCodeNotFound, dsErr.Code)
}

func TestHTTPClientCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	loader := NewLoader(season.NFL(), testHTTPClient(), nil)
	_, err := loader.Load(context.Background(), Files{GamesPath: server.URL + "/games.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkError)

	_, err = loader.Load(context.Background(), Files{GamesPath: server.URL + "/games.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Data: config.DataConfig{
		Source:    "file",
		GamesPath: writeFile(t, dir, "games.csv", gamesCSV),
		LinesPath: writeFile(t, dir, "lines.csv", linesCSV),
	}}

	store, err := NewStore(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	week, err := store.GamesInWeek(context.Background(), 2023, 1)
	require.NoError(t, err)
	assert.Len(t, week, 2)

	cfg.Data.Source = "postgres"
	_, err = NewStore(context.Background(), cfg, nil, nil)
	assert.Error(t, err)

	cfg.Data.Source = "ftp"
	_, err = NewStore(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}

func TestHTTPClientCircuitBreakerCooldown(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(gamesCSV))
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(HTTPClientConfig{
		Timeout:           time.Second,
		RateLimit:         1000,
		CircuitBreakerMax: 1,
		CircuitCooldown:   20 * time.Millisecond,
	}, nil)

	_, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	_, err = client.Fetch(context.Background(), server.URL)
	assert.ErrorContains(t, err, "circuit breaker open")

	healthy.Store(true)
	time.Sleep(30 * time.Millisecond)
	body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	body.Close()
}
