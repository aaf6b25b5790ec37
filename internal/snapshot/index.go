// Package snapshot stores write-once point-in-time ratings so projections
// for a game only ever see information available before that game's week.
package snapshot

import (
	"fmt"
	"sort"

	"github.com/yourusername/spread-edge/internal/models"
)

// Source provides point-in-time ratings
type Source interface {
	RatingAsOf(teamID string, season, week int) (float64, error)
}

type seasonKey struct {
	team   string
	season int
}

type weekly struct {
	weeks   []int
	ratings map[int]float64
}

// Index is an append-only log of rating snapshots
type Index struct {
	weekly    map[seasonKey]*weekly
	preseason map[seasonKey]float64
	count     int
}

// NewIndex creates an empty snapshot index
func NewIndex() *Index {
	return &Index{
		weekly:    make(map[seasonKey]*weekly),
		preseason: make(map[seasonKey]float64),
	}
}

// Record stores the rating a team carried out of a completed week
func (i *Index) Record(teamID string, season, week int, rating float64) error {
	key := seasonKey{team: teamID, season: season}
	w, ok := i.weekly[key]
	if !ok {
		w = &weekly{ratings: make(map[int]float64)}
		i.weekly[key] = w
	}
	if _, exists := w.ratings[week]; exists {
		return fmt.Errorf("%w: %s %d week %d", models.ErrSnapshotExists, teamID, season, week)
	}
	w.ratings[week] = rating
	pos := sort.SearchInts(w.weeks, week)
	w.weeks = append(w.weeks, 0)
	copy(w.weeks[pos+1:], w.weeks[pos:])
	w.weeks[pos] = week
	i.count++
	return nil
}

// RecordPreseason stores the rating a team enters a season with
func (i *Index) RecordPreseason(teamID string, season int, rating float64) error {
	key := seasonKey{team: teamID, season: season}
	if _, exists := i.preseason[key]; exists {
		return fmt.Errorf("%w: %s %d preseason", models.ErrSnapshotExists, teamID, season)
	}
	i.preseason[key] = rating
	i.count++
	return nil
}

// RecordAll records a weekly snapshot for every team in ratings
func (i *Index) RecordAll(season, week int, ratings map[string]float64) error {
	for _, id := range sortedIDs(ratings) {
		if err := i.Record(id, season, week, ratings[id]); err != nil {
			return err
		}
	}
	return nil
}

// RecordAllPreseason records a preseason snapshot for every team in ratings
func (i *Index) RecordAllPreseason(season int, ratings map[string]float64) error {
	for _, id := range sortedIDs(ratings) {
		if err := i.RecordPreseason(id, season, ratings[id]); err != nil {
			return err
		}
	}
	return nil
}

// RatingAsOf returns the latest snapshot strictly before week, falling back to
// the preseason snapshot, or ErrNotFound.
func (i *Index) RatingAsOf(teamID string, season, week int) (float64, error) {
	key := seasonKey{team: teamID, season: season}
	if w, ok := i.weekly[key]; ok {
		pos := sort.SearchInts(w.weeks, week)
		if pos > 0 {
			return w.ratings[w.weeks[pos-1]], nil
		}
	}
	if r, ok := i.preseason[key]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("%w: rating for %s before %d week %d", models.ErrNotFound, teamID, season, week)
}

// Snapshots returns every recorded snapshot ordered by team, season, week.
// Preseason snapshots are reported as week 0.
func (i *Index) Snapshots() []models.RatingSnapshot {
	out := make([]models.RatingSnapshot, 0, i.count)
	for key, r := range i.preseason {
		out = append(out, models.RatingSnapshot{TeamID: key.team, Season: key.season, Week: 0, Rating: r})
	}
	for key, w := range i.weekly {
		for _, week := range w.weeks {
			out = append(out, models.RatingSnapshot{TeamID: key.team, Season: key.season, Week: week, Rating: w.ratings[week]})
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].TeamID != out[b].TeamID {
			return out[a].TeamID < out[b].TeamID
		}
		if out[a].Season != out[b].Season {
			return out[a].Season < out[b].Season
		}
		return out[a].Week < out[b].Week
	})
	return out
}

// Len returns the number of recorded snapshots
func (i *Index) Len() int {
	return i.count
}

func sortedIDs(ratings map[string]float64) []string {
	ids := make([]string, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
