package backtest

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/spread-edge/internal/models"
)

type fakeResultRepo struct {
	saved []*models.BacktestResult
}

func (r *fakeResultRepo) SaveResult(ctx context.Context, result *models.BacktestResult) error {
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	for _, s := range r.saved {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeResultRepo) GetRecent(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	return r.saved, nil
}

func runPlanted(t *testing.T) *Result {
	t.Helper()
	store := buildLeague([]int{2023}, 20, plantedOutcome, true)
	engine, err := newTestEngine(singleSeasonConfig())
	require.NoError(t, err)
	result, err := engine.Run(context.Background(), store)
	require.NoError(t, err)
	return result
}

func TestGenerateConsoleReport(t *testing.T) {
	result := runPlanted(t)
	report := GenerateConsoleReport(result)

	assert.Contains(t, report, "Backtest Report")
	assert.Contains(t, report, "Holdout Record: 37-13-0 (50 bets)")
	assert.Contains(t, report, "Edge Buckets")
	assert.Contains(t, report, "Recommendation: ACCEPT")
}

func TestWriteBetsCSV(t *testing.T) {
	bets := []models.Bet{
		{GameID: "g1", Season: 2023, Week: 3, Side: models.SideHome, MarketSpreadHome: 3, BetSpread: 3,
			ClosingSpread: floatPtr(2.5), CLV: floatPtr(0.5), Result: models.BetResultWin, Profit: 0.91},
		{GameID: "g2", Season: 2023, Week: 3, Side: models.SideAway, MarketSpreadHome: -7, BetSpread: 7,
			Price: intPtr(-110), Result: models.BetResultPush},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBetsCSV(&buf, bets))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[0], 16)
	assert.Equal(t, "game_id", rows[0][0])
	assert.Equal(t, "g1", rows[1][0])
	assert.Equal(t, "0.500000", rows[1][8])
	assert.Equal(t, "", rows[1][9])
	assert.Equal(t, "-110", rows[2][9])
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "push", rows[2][14])
}

func TestReportFiles(t *testing.T) {
	result := runPlanted(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "out", "result.json")
	require.NoError(t, ExportToJSON(result, jsonPath))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, RecommendAccept, decoded["recommendation"])

	yamlPath := filepath.Join(dir, "result.yaml")
	require.NoError(t, WriteYAMLReport(result, yamlPath))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	var node map[string]any
	require.NoError(t, yaml.Unmarshal(data, &node))
	assert.Contains(t, node, "holdoutsummary")

	csvPath := filepath.Join(dir, "summary.csv")
	require.NoError(t, GenerateCSVExport(result, csvPath))
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "recommendation,ACCEPT")

	betsPath := filepath.Join(dir, "bets.csv")
	require.NoError(t, WriteBetsCSVFile(betsPath, result.HoldoutBets))
	data, err = os.ReadFile(betsPath)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 51)

	htmlPath := filepath.Join(dir, "report.html")
	require.NoError(t, GenerateHTMLReport(result, htmlPath))
	data, err = os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")

	assert.Error(t, ExportToJSON(result, ""))
}

func TestExportToDatabase(t *testing.T) {
	result := runPlanted(t)
	repo := &fakeResultRepo{}

	require.NoError(t, ExportToDatabase(context.Background(), result, repo))
	require.Len(t, repo.saved, 1)

	saved := repo.saved[0]
	assert.Equal(t, result.RunID, saved.ID)
	assert.Equal(t, result.Selected.Hash, saved.ParameterHash)
	assert.Equal(t, 50, saved.HoldoutBets)
	assert.Equal(t, "2023-W11", saved.HoldoutFrom)
	assert.InDelta(t, result.HoldoutBootstrap.WinRate.Lower, saved.WinRateLower, 1e-12)

	var params Params
	require.NoError(t, json.Unmarshal(saved.SelectedParams, &params))
	assert.Equal(t, result.Selected.Params, params)

	assert.Error(t, ExportToDatabase(context.Background(), result, nil))
	assert.Error(t, ExportToDatabase(context.Background(), nil, repo))
}

func TestUnitsCurve(t *testing.T) {
	bets := []models.Bet{
		{GameID: "a", Profit: 0.91},
		{GameID: "b", Profit: -1},
		{GameID: "c", Profit: -1},
		{GameID: "d", Profit: 0},
		{GameID: "e", Profit: 0.91},
	}
	curve := BuildCurve(bets)
	require.Len(t, curve, 5)

	assert.InDelta(t, -0.18, curve.Final(), 1e-9)
	assert.InDelta(t, 2.0, curve.MaxDrawdown(), 1e-9)
	assert.InDelta(t, 0.0, curve[0].Drawdown, 1e-9)
	assert.InDelta(t, 2.0, curve[3].Drawdown, 1e-9)
	assert.InDelta(t, 1.09, curve[4].Drawdown, 1e-9)
	assert.Positive(t, curve.GetVolatility())

	lines := strings.Split(strings.TrimSpace(curve.ToCSV()), "\n")
	assert.Len(t, lines, 6)
	assert.Equal(t, "index,game_id,season,week,profit,units,drawdown", lines[0])
	assert.Contains(t, curve.ToJSON(), `"game_id":"e"`)

	assert.Zero(t, UnitsCurve(nil).Final())
	assert.Zero(t, UnitsCurve(nil).GetVolatility())
}
