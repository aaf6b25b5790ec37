package edge

import (
	"fmt"
	"math"

	"github.com/yourusername/spread-edge/internal/models"
)

// Rejection reasons reported by the built-in rules
const (
	ReasonQualified          = "qualified"
	ReasonEdgeBelowMin       = "edge_below_min"
	ReasonEdgeAboveMax       = "edge_above_max"
	ReasonSpreadOutsideBand  = "spread_outside_band"
	ReasonInsufficientGames  = "insufficient_games"
	ReasonUncertaintyTooHigh = "uncertainty_too_high"
)

// Rule is one composable qualification check
type Rule interface {
	Name() string
	Check(c Candidate) (bool, string)
}

// Validator is implemented by rules whose thresholds can contradict each other
type Validator interface {
	Validate() error
}

// EdgeRange requires the selection edge within [Min, Max]; Max <= 0 is unbounded
type EdgeRange struct {
	Min float64
	Max float64
}

func (r EdgeRange) Name() string { return "edge_range" }

func (r EdgeRange) Check(c Candidate) (bool, string) {
	e := c.SelectionEdge()
	if e < r.Min {
		return false, ReasonEdgeBelowMin
	}
	if r.Max > 0 && e > r.Max {
		return false, ReasonEdgeAboveMax
	}
	return true, ""
}

func (r EdgeRange) Validate() error {
	if r.Min < 0 || math.IsNaN(r.Min) {
		return fmt.Errorf("%w: min edge must be non-negative", models.ErrInvalidConfiguration)
	}
	if r.Max > 0 && r.Min > r.Max {
		return fmt.Errorf("%w: min edge %.2f exceeds max edge %.2f", models.ErrInvalidConfiguration, r.Min, r.Max)
	}
	return nil
}

// SpreadBand excludes market spreads whose magnitude falls outside [MinAbs, MaxAbs]
type SpreadBand struct {
	MinAbs float64
	MaxAbs float64
}

func (r SpreadBand) Name() string { return "spread_band" }

func (r SpreadBand) Check(c Candidate) (bool, string) {
	s := math.Abs(c.MarketSpreadHome)
	if s < r.MinAbs || (r.MaxAbs > 0 && s > r.MaxAbs) {
		return false, ReasonSpreadOutsideBand
	}
	return true, ""
}

func (r SpreadBand) Validate() error {
	if r.MinAbs < 0 {
		return fmt.Errorf("%w: min spread must be non-negative", models.ErrInvalidConfiguration)
	}
	if r.MaxAbs > 0 && r.MinAbs > r.MaxAbs {
		return fmt.Errorf("%w: min spread %.1f exceeds max spread %.1f", models.ErrInvalidConfiguration, r.MinAbs, r.MaxAbs)
	}
	return nil
}

// MinGames requires both teams to have played N games this season
type MinGames struct {
	N int
}

func (r MinGames) Name() string { return "min_games" }

func (r MinGames) Check(c Candidate) (bool, string) {
	if c.HomeGames < r.N || c.AwayGames < r.N {
		return false, ReasonInsufficientGames
	}
	return true, ""
}

func (r MinGames) Validate() error {
	if r.N < 0 {
		return fmt.Errorf("%w: min games must be non-negative", models.ErrInvalidConfiguration)
	}
	return nil
}

// MaxUncertainty rejects candidates whose uncertainty score exceeds Max
type MaxUncertainty struct {
	Max float64
}

func (r MaxUncertainty) Name() string { return "max_uncertainty" }

func (r MaxUncertainty) Check(c Candidate) (bool, string) {
	if c.Uncertainty > r.Max {
		return false, ReasonUncertaintyTooHigh
	}
	return true, ""
}

func (r MaxUncertainty) Validate() error {
	if r.Max < 0 || r.Max > 1 {
		return fmt.Errorf("%w: max uncertainty must be between 0 and 1", models.ErrInvalidConfiguration)
	}
	return nil
}

// RuleSet applies rules in order and stops at the first rejection
type RuleSet []Rule

// Check returns the first failing rule's reason
func (rs RuleSet) Check(c Candidate) (bool, string) {
	for _, rule := range rs {
		if ok, reason := rule.Check(c); !ok {
			return false, reason
		}
	}
	return true, ReasonQualified
}

// Validate rejects empty or contradictory rule sets
func (rs RuleSet) Validate() error {
	if len(rs) == 0 {
		return fmt.Errorf("%w: qualification rule set is empty", models.ErrInvalidConfiguration)
	}
	for _, rule := range rs {
		if rule == nil {
			return fmt.Errorf("%w: nil qualification rule", models.ErrInvalidConfiguration)
		}
		if v, ok := rule.(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("rule %s: %w", rule.Name(), err)
			}
		}
	}
	return nil
}
