package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/season"
)

var (
	gameColumns = []string{"id", "commence_time", "home_team", "away_team"}
	lineColumns = []string{"game_id", "checkpoint", "captured_at", "home_spread"}
	teamColumns = []string{"team_id", "season"}
)

// csvTable reads a headered CSV and exposes fields by column name
type csvTable struct {
	source string
	reader *csv.Reader
	index  map[string]int
	row    []string
	line   int
}

func newCSVTable(source string, r io.Reader, required []string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, NewDataSourceError(source, 1, ErrCodeInvalidData, "failed to read header", errors.Join(ErrInvalidData, err))
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, NewDataSourceError(source, 1, ErrCodeInvalidData, fmt.Sprintf("missing column %q", col), ErrInvalidData)
		}
	}
	return &csvTable{source: source, reader: reader, index: index, line: 1}, nil
}

// next advances to the next record, returning io.EOF at the end
func (t *csvTable) next() error {
	row, err := t.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return NewDataSourceError(t.source, t.line+1, ErrCodeInvalidData, "malformed record", errors.Join(ErrInvalidData, err))
	}
	t.row = row
	t.line++
	return nil
}

func (t *csvTable) get(col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(t.row) {
		return ""
	}
	return strings.TrimSpace(t.row[i])
}

func (t *csvTable) fail(format string, args ...any) error {
	return NewDataSourceError(t.source, t.line, ErrCodeInvalidData, fmt.Sprintf(format, args...), ErrInvalidData)
}

func (t *csvTable) optionalInt(col string) (*int, error) {
	v := t.get(col)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, t.fail("invalid %s %q", col, v)
	}
	return &n, nil
}

func (t *csvTable) intOr(col string, fallback int) (int, error) {
	n, err := t.optionalInt(col)
	if err != nil || n == nil {
		return fallback, err
	}
	return *n, nil
}

func (t *csvTable) float(col string, fallback float64) (float64, error) {
	v := t.get(col)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, t.fail("invalid %s %q", col, v)
	}
	return f, nil
}

func (t *csvTable) flag(col string) (bool, error) {
	v := t.get(col)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, t.fail("invalid %s %q", col, v)
	}
	return b, nil
}

func (t *csvTable) timestamp(col string) (time.Time, error) {
	v := t.get(col)
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, t.fail("invalid %s %q, expected RFC3339", col, v)
	}
	return ts, nil
}

// ParseGames reads games. When season or week is blank it is derived from
// commence_time with the calendar.
func ParseGames(source string, r io.Reader, cal season.Calendar) ([]models.Game, error) {
	t, err := newCSVTable(source, r, gameColumns)
	if err != nil {
		return nil, err
	}

	var games []models.Game
	seen := make(map[string]bool)
	for {
		if err := t.next(); err != nil {
			if errors.Is(err, io.EOF) {
				return games, nil
			}
			return nil, err
		}

		g := models.Game{
			ID:         t.get("id"),
			HomeTeamID: t.get("home_team"),
			AwayTeamID: t.get("away_team"),
		}
		if g.ID == "" || g.HomeTeamID == "" || g.AwayTeamID == "" {
			return nil, t.fail("id, home_team and away_team are required")
		}
		if g.HomeTeamID == g.AwayTeamID {
			return nil, t.fail("team %s cannot play itself", g.HomeTeamID)
		}
		if seen[g.ID] {
			return nil, t.fail("duplicate game id %s", g.ID)
		}
		seen[g.ID] = true

		if g.CommenceTime, err = t.timestamp("commence_time"); err != nil {
			return nil, err
		}
		if g.Season, err = t.intOr("season", 0); err != nil {
			return nil, err
		}
		if g.Week, err = t.intOr("week", 0); err != nil {
			return nil, err
		}
		if g.Season == 0 || t.get("week") == "" {
			if cal == nil {
				return nil, t.fail("season and week are required without a calendar")
			}
			sw, err := cal.WeekOf(g.CommenceTime)
			if err != nil {
				return nil, t.fail("cannot derive week: %v", err)
			}
			g.Season, g.Week = sw.Season, sw.Week
		}
		if g.HomeScore, err = t.optionalInt("home_score"); err != nil {
			return nil, err
		}
		if g.AwayScore, err = t.optionalInt("away_score"); err != nil {
			return nil, err
		}
		if (g.HomeScore == nil) != (g.AwayScore == nil) {
			return nil, t.fail("game %s has only one score", g.ID)
		}
		if g.HomeScore != nil && (*g.HomeScore < 0 || *g.AwayScore < 0) {
			return nil, t.fail("game %s has a negative score", g.ID)
		}
		if g.NeutralSite, err = t.flag("neutral_site"); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
}

// ParseLines reads market line snapshots
func ParseLines(source string, r io.Reader) ([]models.MarketLine, error) {
	t, err := newCSVTable(source, r, lineColumns)
	if err != nil {
		return nil, err
	}

	var lines []models.MarketLine
	for {
		if err := t.next(); err != nil {
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			return nil, err
		}

		l := models.MarketLine{
			GameID:     t.get("game_id"),
			Checkpoint: models.Checkpoint(strings.ToLower(t.get("checkpoint"))),
		}
		if l.GameID == "" {
			return nil, t.fail("game_id is required")
		}
		if l.Checkpoint.Rank() == 0 {
			return nil, t.fail("unknown checkpoint %q", l.Checkpoint)
		}
		if l.CapturedAt, err = t.timestamp("captured_at"); err != nil {
			return nil, err
		}
		if t.get("home_spread") == "" {
			return nil, t.fail("home_spread is required")
		}
		if l.HomeSpread, err = t.float("home_spread", 0); err != nil {
			return nil, err
		}
		if l.HomePrice, err = t.optionalInt("home_price"); err != nil {
			return nil, err
		}
		if l.AwayPrice, err = t.optionalInt("away_price"); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
}

// ParseTeams reads team season metadata. Roster continuity defaults to 1.
func ParseTeams(source string, r io.Reader) ([]models.TeamSeasonInfo, error) {
	t, err := newCSVTable(source, r, teamColumns)
	if err != nil {
		return nil, err
	}

	var infos []models.TeamSeasonInfo
	for {
		if err := t.next(); err != nil {
			if errors.Is(err, io.EOF) {
				return infos, nil
			}
			return nil, err
		}

		info := models.TeamSeasonInfo{
			TeamID:     t.get("team_id"),
			Conference: t.get("conference"),
		}
		if info.TeamID == "" {
			return nil, t.fail("team_id is required")
		}
		if info.Season, err = t.intOr("season", 0); err != nil {
			return nil, err
		}
		if info.Season == 0 {
			return nil, t.fail("season is required")
		}
		if info.RosterContinuity, err = t.float("roster_continuity", 1); err != nil {
			return nil, err
		}
		if info.RosterContinuity < 0 || info.RosterContinuity > 1 {
			return nil, t.fail("roster_continuity must be between 0 and 1")
		}
		if info.KeyPlayerTransition, err = t.flag("key_player_transition"); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
}
