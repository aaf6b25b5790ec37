// Package edge compares projected spreads with market spreads and decides
// which games qualify as bets.
package edge

import (
	"math"

	"github.com/yourusername/spread-edge/internal/models"
)

// TieSide is the recommended side when the projection matches the market exactly
const TieSide = models.SideAway

// Result is the raw comparison of a market spread against a model spread
type Result struct {
	Edge    float64     `json:"edge"`
	AbsEdge float64     `json:"abs_edge"`
	Side    models.Side `json:"side"`
}

// Compute returns edge = market - model. A positive edge means the market gives
// the home team more points than the model thinks it needs, so home is the bet.
func Compute(marketSpreadHome, modelSpreadHome float64) Result {
	e := marketSpreadHome - modelSpreadHome
	side := TieSide
	switch {
	case e > 0:
		side = models.SideHome
	case e < 0:
		side = models.SideAway
	}
	return Result{Edge: e, AbsEdge: math.Abs(e), Side: side}
}

// Candidate is a game evaluated against the qualification rules
type Candidate struct {
	GameID           string
	HomeTeamID       string
	AwayTeamID       string
	Season           int
	Week             int
	MarketSpreadHome float64
	ModelSpreadHome  float64
	Result           Result
	HomeGames        int
	AwayGames        int
	Home             *models.TeamSeasonInfo
	Away             *models.TeamSeasonInfo

	Uncertainty   float64
	EffectiveEdge float64
}

// NewCandidate computes the edge for a projected game against a market spread
func NewCandidate(game models.Game, proj models.Projection, marketSpreadHome float64) Candidate {
	res := Compute(marketSpreadHome, proj.ModelSpreadHome)
	return Candidate{
		GameID:           game.ID,
		HomeTeamID:       game.HomeTeamID,
		AwayTeamID:       game.AwayTeamID,
		Season:           game.Season,
		Week:             game.Week,
		MarketSpreadHome: marketSpreadHome,
		ModelSpreadHome:  proj.ModelSpreadHome,
		Result:           res,
		EffectiveEdge:    res.Edge,
	}
}

// SelectionEdge is the absolute effective edge used for selection and ranking
func (c Candidate) SelectionEdge() float64 {
	return math.Abs(c.EffectiveEdge)
}
