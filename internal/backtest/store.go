package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/yourusername/spread-edge/internal/models"
)

// GameStore is the read-only record source a backtest runs against
type GameStore interface {
	// Games returns games strictly before the given season-week, or all games when nil.
	Games(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error)
	Lines(ctx context.Context, gameID string) ([]models.MarketLine, error)
	// TeamInfo returns models.ErrNotFound when no metadata exists.
	TeamInfo(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error)
}

type infoKey struct {
	team   string
	season int
}

// Dataset is everything a replay needs, loaded before replay begins
type Dataset struct {
	Games []models.Game
	Lines map[string][]models.MarketLine

	info  map[infoKey]*models.TeamSeasonInfo
	until *models.SeasonWeek
}

// LoadDataset reads games before until (all games when nil), their market lines
// and team metadata. Games outside seasons are dropped when seasons is non-empty.
func LoadDataset(ctx context.Context, store GameStore, until *models.SeasonWeek, seasons []int) (*Dataset, error) {
	if store == nil {
		return nil, fmt.Errorf("game store is required")
	}
	games, err := store.Games(ctx, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	allowed := make(map[int]bool, len(seasons))
	for _, s := range seasons {
		allowed[s] = true
	}

	ds := &Dataset{
		Games: make([]models.Game, 0, len(games)),
		Lines: make(map[string][]models.MarketLine, len(games)),
		info:  make(map[infoKey]*models.TeamSeasonInfo),
		until: until,
	}
	for _, g := range games {
		if until != nil && !g.SeasonWeek().Before(*until) {
			continue
		}
		if len(allowed) > 0 && !allowed[g.Season] {
			continue
		}
		ds.Games = append(ds.Games, g)
	}
	sort.SliceStable(ds.Games, func(i, j int) bool { return ds.Games[i].Less(ds.Games[j]) })

	teamSeasons := make(map[infoKey]bool)
	for _, g := range ds.Games {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := store.Lines(ctx, g.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to load lines for %s: %w", g.ID, err)
		}
		if len(lines) > 0 {
			ds.Lines[g.ID] = lines
		}
		teamSeasons[infoKey{g.HomeTeamID, g.Season}] = true
		teamSeasons[infoKey{g.AwayTeamID, g.Season}] = true
	}

	keys := make([]infoKey, 0, len(teamSeasons))
	for k := range teamSeasons {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].season != keys[j].season {
			return keys[i].season < keys[j].season
		}
		return keys[i].team < keys[j].team
	})
	for _, k := range keys {
		info, err := store.TeamInfo(ctx, k.team, k.season)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load team info for %s %d: %w", k.team, k.season, err)
		}
		if info != nil {
			ds.info[k] = info
		}
	}

	return ds, nil
}

// TeamInfo returns metadata for a team season, or nil
func (d *Dataset) TeamInfo(teamID string, season int) *models.TeamSeasonInfo {
	return d.info[infoKey{teamID, season}]
}

// SeasonTeams returns the metadata recorded for a season, sorted by team ID
func (d *Dataset) SeasonTeams(season int) []models.TeamSeasonInfo {
	var out []models.TeamSeasonInfo
	for k, info := range d.info {
		if k.season == season {
			out = append(out, *info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// Seasons returns the distinct seasons present, ascending
func (d *Dataset) Seasons() []int {
	var out []int
	for _, g := range d.Games {
		if len(out) == 0 || out[len(out)-1] != g.Season {
			out = append(out, g.Season)
		}
	}
	return out
}

// Before returns a view holding only games strictly before sw
func (d *Dataset) Before(sw models.SeasonWeek) *Dataset {
	n := sort.Search(len(d.Games), func(i int) bool { return !d.Games[i].SeasonWeek().Before(sw) })
	return &Dataset{Games: d.Games[:n:n], Lines: d.Lines, info: d.info, until: &sw}
}

// Until returns the exclusive upper bound the dataset was loaded with, or nil
func (d *Dataset) Until() *models.SeasonWeek {
	return d.until
}
