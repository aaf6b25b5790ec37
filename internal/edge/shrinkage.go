package edge

import (
	"fmt"
	"math"

	"github.com/yourusername/spread-edge/internal/models"
)

// Shrinkage policy names
const (
	PolicyAdditive       = "additive"
	PolicyMultiplicative = "multiplicative"
)

// DefaultUncertaintyCap bounds the combined uncertainty score
const DefaultUncertaintyCap = 0.75

// Factors are independent risk terms, each in [0, 1]
type Factors struct {
	EarlySeason      float64 `json:"early_season"`
	RosterContinuity float64 `json:"roster_continuity"`
	KeyPlayer        float64 `json:"key_player"`
}

func (f Factors) values() []float64 {
	return []float64{f.EarlySeason, f.RosterContinuity, f.KeyPlayer}
}

// Policy combines factors into a single uncertainty score
type Policy interface {
	Name() string
	Combine(f Factors) float64
}

// AdditiveCapped sums the factors and caps the total
type AdditiveCapped struct {
	Cap float64
}

func (p AdditiveCapped) Name() string { return PolicyAdditive }

func (p AdditiveCapped) Combine(f Factors) float64 {
	total := 0.0
	for _, v := range f.values() {
		total += clamp01(v)
	}
	return math.Min(total, p.Cap)
}

// Multiplicative treats factors as independent retention terms:
// 1 - prod(1 - f), capped.
type Multiplicative struct {
	Cap float64
}

func (p Multiplicative) Name() string { return PolicyMultiplicative }

func (p Multiplicative) Combine(f Factors) float64 {
	retained := 1.0
	for _, v := range f.values() {
		retained *= 1 - clamp01(v)
	}
	return math.Min(1-retained, p.Cap)
}

// NewPolicy returns a policy by name
func NewPolicy(name string, limit float64) (Policy, error) {
	if limit < 0 || limit > 1 {
		return nil, fmt.Errorf("%w: uncertainty cap must be between 0 and 1", models.ErrInvalidConfiguration)
	}
	switch name {
	case "", PolicyAdditive:
		return AdditiveCapped{Cap: limit}, nil
	case PolicyMultiplicative:
		return Multiplicative{Cap: limit}, nil
	}
	return nil, fmt.Errorf("%w: unknown shrinkage policy %q", models.ErrInvalidConfiguration, name)
}

// FactorConfig configures how each risk factor is scored
type FactorConfig struct {
	// EarlySeasonWeeks is the number of opening weeks penalized, decaying linearly.
	EarlySeasonWeeks   int     `json:"early_season_weeks" yaml:"early_season_weeks"`
	EarlySeasonPenalty float64 `json:"early_season_penalty" yaml:"early_season_penalty"`
	// RosterPenalty is scaled by one minus the lower roster continuity of the two teams.
	RosterPenalty    float64 `json:"roster_penalty" yaml:"roster_penalty"`
	KeyPlayerPenalty float64 `json:"key_player_penalty" yaml:"key_player_penalty"`
}

// Validate validates factor configuration
func (c FactorConfig) Validate() error {
	if c.EarlySeasonWeeks < 0 {
		return fmt.Errorf("%w: early season weeks must be non-negative", models.ErrInvalidConfiguration)
	}
	for name, v := range map[string]float64{
		"early season penalty": c.EarlySeasonPenalty,
		"roster penalty":       c.RosterPenalty,
		"key player penalty":   c.KeyPlayerPenalty,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1", models.ErrInvalidConfiguration, name)
		}
	}
	return nil
}

// Score computes the risk factors for a candidate
func (c FactorConfig) Score(cand Candidate) Factors {
	var f Factors
	if c.EarlySeasonWeeks > 0 && cand.Week <= c.EarlySeasonWeeks {
		week := cand.Week
		if week < 1 {
			week = 1
		}
		remaining := float64(c.EarlySeasonWeeks-week+1) / float64(c.EarlySeasonWeeks)
		f.EarlySeason = c.EarlySeasonPenalty * remaining
	}
	if cont, ok := lowestContinuity(cand.Home, cand.Away); ok {
		f.RosterContinuity = c.RosterPenalty * (1 - cont)
	}
	if (cand.Home != nil && cand.Home.KeyPlayerTransition) || (cand.Away != nil && cand.Away.KeyPlayerTransition) {
		f.KeyPlayer = c.KeyPlayerPenalty
	}
	return f
}

// Shrinkage scores candidate uncertainty and shrinks its edge
type Shrinkage struct {
	Factors FactorConfig
	Policy  Policy
}

// Apply sets the candidate's uncertainty and effective edge
func (s *Shrinkage) Apply(c Candidate) (Candidate, Factors) {
	f := s.Factors.Score(c)
	score := clamp01(s.Policy.Combine(f))
	c.Uncertainty = score
	c.EffectiveEdge = c.Result.Edge * (1 - score)
	return c, f
}

func lowestContinuity(infos ...*models.TeamSeasonInfo) (float64, bool) {
	lowest := 1.0
	found := false
	for _, info := range infos {
		if info == nil {
			continue
		}
		found = true
		lowest = math.Min(lowest, clamp01(info.RosterContinuity))
	}
	return lowest, found
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
