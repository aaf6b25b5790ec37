package datasource

import (
	"context"
	"sort"
	"sync"

	"github.com/yourusername/spread-edge/internal/models"
)

type teamKey struct {
	team   string
	season int
}

// MemoryStore holds every record in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]models.Game
	lines map[string][]models.MarketLine
	teams map[teamKey]models.TeamSeasonInfo
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string]models.Game),
		lines: make(map[string][]models.MarketLine),
		teams: make(map[teamKey]models.TeamSeasonInfo),
	}
}

// AddGames inserts games, replacing any with the same ID
func (s *MemoryStore) AddGames(games ...models.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range games {
		s.games[g.ID] = g
	}
}

// AddLines appends market line snapshots
func (s *MemoryStore) AddLines(lines ...models.MarketLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		s.lines[l.GameID] = append(s.lines[l.GameID], l)
	}
}

// AddTeams inserts team season metadata, replacing existing entries
func (s *MemoryStore) AddTeams(infos ...models.TeamSeasonInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, info := range infos {
		s.teams[teamKey{info.TeamID, info.Season}] = info
	}
}

// TeamInfos returns all team season metadata ordered by season then team
func (s *MemoryStore) TeamInfos() []models.TeamSeasonInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TeamSeasonInfo, 0, len(s.teams))
	for _, info := range s.teams {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out
}

// Len returns the number of games held
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// HasGame reports whether a game ID is known
func (s *MemoryStore) HasGame(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.games[id]
	return ok
}

// Games returns games strictly before the season-week in chronological order
func (s *MemoryStore) Games(ctx context.Context, before *models.SeasonWeek) ([]models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.filter(func(g models.Game) bool {
		return before == nil || g.SeasonWeek().Before(*before)
	}), nil
}

// GamesInWeek returns one week's games in kickoff order
func (s *MemoryStore) GamesInWeek(ctx context.Context, season, week int) ([]models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.filter(func(g models.Game) bool {
		return g.Season == season && g.Week == week
	}), nil
}

// Lines returns a copy of a game's market lines in capture order
func (s *MemoryStore) Lines(ctx context.Context, gameID string) ([]models.MarketLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.lines[gameID]
	if len(src) == 0 {
		return nil, nil
	}
	out := make([]models.MarketLine, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}

// TeamInfo returns models.ErrNotFound when no metadata exists
func (s *MemoryStore) TeamInfo(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.teams[teamKey{teamID, season}]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &info, nil
}

func (s *MemoryStore) filter(keep func(models.Game) bool) []models.Game {
	s.mu.RLock()
	out := make([]models.Game, 0, len(s.games))
	for _, g := range s.games {
		if keep(g) {
			out = append(out, g)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
