// Package service serves current ratings, projections and qualified edges
// from a replayed rating history.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/spread-edge/internal/backtest"
	"github.com/yourusername/spread-edge/internal/datasource"
	"github.com/yourusername/spread-edge/internal/edge"
	"github.com/yourusername/spread-edge/internal/metrics"
	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/projection"
)

// ErrNotReady is returned when ratings are requested before Refresh
var ErrNotReady = errors.New("ratings have not been built")

// Options configures a LiveService
type Options struct {
	Params   backtest.Params
	BetLine  models.LineSelector
	CacheTTL time.Duration
}

// LiveService rebuilds ratings from a store and evaluates upcoming slates
type LiveService struct {
	store   datasource.Store
	params  backtest.Params
	betLine models.LineSelector
	logger  *logrus.Logger
	log     *logrus.Entry

	mu        sync.RWMutex
	run       *backtest.Run
	projector *projection.Projector
	qualifier *edge.Qualifier
	builtAt   time.Time

	projections *cache.Cache
}

// NewLiveService creates a live service. Refresh must run before any query.
func NewLiveService(store datasource.Store, opts Options, logger *logrus.Logger) (*LiveService, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	qualifier, err := edge.NewQualifier(opts.Params.Qualification)
	if err != nil {
		return nil, err
	}
	if opts.BetLine == "" {
		opts.BetLine = models.SelectLatest
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &LiveService{
		store:       store,
		params:      opts.Params,
		betLine:     opts.BetLine,
		logger:      logger,
		log:         logger.WithField("component", "live_service"),
		qualifier:   qualifier,
		projections: cache.New(opts.CacheTTL, opts.CacheTTL*2),
	}, nil
}

// Refresh replays the full history held by the store and swaps in the result
func (s *LiveService) Refresh(ctx context.Context) error {
	start := time.Now()
	ds, err := backtest.LoadDataset(ctx, s.store, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	run, err := backtest.RateHistory(ctx, ds, s.params, s.logger)
	if err != nil {
		return fmt.Errorf("failed to rate history: %w", err)
	}
	projector, err := projection.NewProjector(run.Snapshots, s.params.Projection)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.run = run
	s.projector = projector
	s.builtAt = time.Now()
	s.mu.Unlock()
	s.projections.Flush()

	teams := len(run.Ratings.Teams())
	metrics.UpdateTeamsRated(teams)
	s.log.WithFields(logrus.Fields{
		"games":    run.GamesReplayed,
		"teams":    teams,
		"duration": time.Since(start).String(),
	}).Info("Ratings refreshed")
	return nil
}

// BuiltAt reports when ratings were last refreshed
func (s *LiveService) BuiltAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builtAt
}

func (s *LiveService) current() (*backtest.Run, *projection.Projector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.run == nil {
		return nil, nil, ErrNotReady
	}
	return s.run, s.projector, nil
}

// Ratings returns the current rating of every known team
func (s *LiveService) Ratings() (map[string]float64, error) {
	run, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return run.Ratings.Ratings(), nil
}

// Rating returns a team's current rating
func (s *LiveService) Rating(teamID string) (float64, error) {
	run, _, err := s.current()
	if err != nil {
		return 0, err
	}
	r, ok := run.Ratings.Ratings()[teamID]
	if !ok {
		return 0, fmt.Errorf("%w: team %s", models.ErrNotFound, teamID)
	}
	return r, nil
}

// RatingAsOf returns the rating a team carried into a week
func (s *LiveService) RatingAsOf(teamID string, season, week int) (float64, error) {
	run, _, err := s.current()
	if err != nil {
		return 0, err
	}
	return run.Snapshots.RatingAsOf(teamID, season, week)
}

// ProjectGame projects a game from point-in-time ratings, caching by game
func (s *LiveService) ProjectGame(game models.Game) (models.Projection, error) {
	_, projector, err := s.current()
	if err != nil {
		return models.Projection{}, err
	}
	key := fmt.Sprintf("%s:%d:%d", game.ID, game.Season, game.Week)
	if cached, found := s.projections.Get(key); found {
		if p, ok := cached.(models.Projection); ok {
			metrics.RecordCacheLookup(true)
			return p, nil
		}
	}
	metrics.RecordCacheLookup(false)

	p, err := projector.ProjectGame(game)
	if err != nil {
		return models.Projection{}, err
	}
	s.projections.SetDefault(key, p)
	return p, nil
}

// Edges evaluates every game in a week against its selected market line and
// returns the verdicts ranked with qualifying edges first. Games without a
// projection or a market line are skipped.
func (s *LiveService) Edges(ctx context.Context, season, week int) ([]models.Edge, error) {
	run, _, err := s.current()
	if err != nil {
		return nil, err
	}
	games, err := s.store.GamesInWeek(ctx, season, week)
	if err != nil {
		return nil, fmt.Errorf("failed to load slate: %w", err)
	}

	verdicts := make([]edge.Verdict, 0, len(games))
	for _, game := range games {
		entry := s.log.WithField("game_id", game.ID)
		p, err := s.ProjectGame(game)
		if err != nil {
			entry.WithError(err).Debug("Skipping game without projection")
			continue
		}
		lines, err := s.store.Lines(ctx, game.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to load lines for %s: %w", game.ID, err)
		}
		line, ok := models.SelectLine(lines, s.betLine)
		if !ok {
			entry.Debug("Skipping game without market line")
			continue
		}

		c := edge.NewCandidate(game, p, line.HomeSpread)
		c.HomeGames = run.Ratings.SeasonGamesPlayed(game.HomeTeamID)
		c.AwayGames = run.Ratings.SeasonGamesPlayed(game.AwayTeamID)
		if c.Home, err = s.teamInfo(ctx, game.HomeTeamID, season); err != nil {
			return nil, err
		}
		if c.Away, err = s.teamInfo(ctx, game.AwayTeamID, season); err != nil {
			return nil, err
		}

		v := s.qualifier.Qualify(c)
		metrics.RecordEdgeEvaluated(v.Reason)
		verdicts = append(verdicts, v)
	}

	ranked := edge.Rank(verdicts)
	out := make([]models.Edge, len(ranked))
	qualified := 0
	for i, v := range ranked {
		out[i] = v.Edge()
		if v.Qualifies {
			qualified++
		}
	}
	metrics.UpdateQualifiedEdges(qualified)
	s.log.WithFields(logrus.Fields{
		"season":    season,
		"week":      week,
		"evaluated": len(out),
		"qualified": qualified,
	}).Info("Slate evaluated")
	return out, nil
}

func (s *LiveService) teamInfo(ctx context.Context, teamID string, season int) (*models.TeamSeasonInfo, error) {
	info, err := s.store.TeamInfo(ctx, teamID, season)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load team info for %s: %w", teamID, err)
	}
	return info, nil
}
