// Package projection converts point-in-time ratings into a model point spread.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/snapshot"
)

// Params holds the tunable spread conversion constants
type Params struct {
	HomeFieldPoints float64 `json:"home_field_points" yaml:"home_field_points"`
	Scale           float64 `json:"scale" yaml:"scale"`
}

// DefaultParams returns rating-points-per-point scale 25 with 2.5 points of home field
func DefaultParams() Params {
	return Params{HomeFieldPoints: 2.5, Scale: 25}
}

// Validate validates projection params
func (p Params) Validate() error {
	if p.Scale <= 0 || math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) {
		return fmt.Errorf("%w: projection scale must be positive", models.ErrInvalidConfiguration)
	}
	if math.IsNaN(p.HomeFieldPoints) || math.IsInf(p.HomeFieldPoints, 0) {
		return fmt.Errorf("%w: home field points must be finite", models.ErrInvalidConfiguration)
	}
	return nil
}

// Project returns the home spread implied by two ratings. Negative means the
// home team is favored by that many points.
func Project(homeRating, awayRating, homeFieldAdvantage, scale float64) float64 {
	return -((homeRating-awayRating)/scale + homeFieldAdvantage)
}

// Projector projects games from a point-in-time rating source
type Projector struct {
	source snapshot.Source
	params Params
}

// NewProjector creates a projector
func NewProjector(source snapshot.Source, params Params) (*Projector, error) {
	if source == nil {
		return nil, fmt.Errorf("rating source is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Projector{source: source, params: params}, nil
}

// Params returns the projector params
func (p *Projector) Params() Params {
	return p.params
}

// ProjectGame projects a game using ratings recorded before its week. A missing
// rating for either team fails with ErrMissingRating.
func (p *Projector) ProjectGame(game models.Game) (models.Projection, error) {
	home, err := p.ratingAsOf(game.HomeTeamID, game)
	if err != nil {
		return models.Projection{}, err
	}
	away, err := p.ratingAsOf(game.AwayTeamID, game)
	if err != nil {
		return models.Projection{}, err
	}
	hfa := p.params.HomeFieldPoints
	if game.NeutralSite {
		hfa = 0
	}
	return models.Projection{
		GameID:          game.ID,
		HomeRating:      home,
		AwayRating:      away,
		ModelSpreadHome: Project(home, away, hfa, p.params.Scale),
	}, nil
}

func (p *Projector) ratingAsOf(teamID string, game models.Game) (float64, error) {
	r, err := p.source.RatingAsOf(teamID, game.Season, game.Week)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, fmt.Errorf("%w: team %s for game %s: %v", models.ErrMissingRating, teamID, game.ID, err)
		}
		return 0, err
	}
	return r, nil
}
