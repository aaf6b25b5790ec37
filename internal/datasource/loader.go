package datasource

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/spread-edge/internal/season"
)

// Loader reads CSV record files from local paths or http(s) URLs
type Loader struct {
	calendar season.Calendar
	client   *RateLimitedHTTPClient
	log      *logrus.Entry
}

// NewLoader creates a loader. A nil client is created on first remote read.
func NewLoader(cal season.Calendar, client *RateLimitedHTTPClient, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Loader{
		calendar: cal,
		client:   client,
		log:      log.WithField("component", "datasource"),
	}
}

// Files names the record files to load; TeamsPath may be empty
type Files struct {
	GamesPath string
	LinesPath string
	TeamsPath string
}

// Load reads every file into a new MemoryStore. Lines for unknown games are dropped.
func (l *Loader) Load(ctx context.Context, files Files) (*MemoryStore, error) {
	store := NewMemoryStore()

	r, err := l.open(ctx, files.GamesPath)
	if err != nil {
		return nil, err
	}
	games, err := ParseGames(files.GamesPath, r, l.calendar)
	r.Close()
	if err != nil {
		return nil, err
	}
	store.AddGames(games...)

	r, err = l.open(ctx, files.LinesPath)
	if err != nil {
		return nil, err
	}
	lines, err := ParseLines(files.LinesPath, r)
	r.Close()
	if err != nil {
		return nil, err
	}
	orphans := 0
	for _, line := range lines {
		if !store.HasGame(line.GameID) {
			orphans++
			continue
		}
		store.AddLines(line)
	}

	teams := 0
	if files.TeamsPath != "" {
		r, err = l.open(ctx, files.TeamsPath)
		if err != nil {
			return nil, err
		}
		infos, err := ParseTeams(files.TeamsPath, r)
		r.Close()
		if err != nil {
			return nil, err
		}
		store.AddTeams(infos...)
		teams = len(infos)
	}

	entry := l.log.WithFields(logrus.Fields{
		"games": len(games),
		"lines": len(lines) - orphans,
		"teams": teams,
	})
	if orphans > 0 {
		entry.WithField("orphan_lines", orphans).Warn("Dropped market lines for unknown games")
	}
	entry.Info("Loaded records")

	return store, nil
}

func (l *Loader) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if location == "" {
		return nil, NewDataSourceError(location, 0, ErrCodeNotFound, "no path configured", ErrInvalidData)
	}
	if !isRemote(location) {
		f, err := os.Open(location)
		if err != nil {
			code := ErrCodeInvalidData
			if errors.Is(err, os.ErrNotExist) {
				code = ErrCodeNotFound
			}
			return nil, NewDataSourceError(location, 0, code, "failed to open file", err)
		}
		return f, nil
	}

	if l.client == nil {
		l.client = NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), nil)
	}
	return l.client.Fetch(ctx, location)
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
