package edge

import (
	"fmt"
	"sort"

	"github.com/yourusername/spread-edge/internal/models"
)

// ShrinkageConfig enables uncertainty shrinkage
type ShrinkageConfig struct {
	Enabled bool         `json:"enabled" yaml:"enabled"`
	Policy  string       `json:"policy" yaml:"policy"`
	Cap     float64      `json:"cap" yaml:"cap"`
	Factors FactorConfig `json:"factors" yaml:"factors"`
}

// Config holds qualification thresholds; zero upper bounds are unbounded
type Config struct {
	MinEdge        float64         `json:"min_edge" yaml:"min_edge"`
	MaxEdge        float64         `json:"max_edge" yaml:"max_edge"`
	MinAbsSpread   float64         `json:"min_abs_spread" yaml:"min_abs_spread"`
	MaxAbsSpread   float64         `json:"max_abs_spread" yaml:"max_abs_spread"`
	MinGames       int             `json:"min_games" yaml:"min_games"`
	MaxUncertainty float64         `json:"max_uncertainty" yaml:"max_uncertainty"`
	Shrinkage      ShrinkageConfig `json:"shrinkage" yaml:"shrinkage"`
}

// DefaultConfig returns the default qualification thresholds
func DefaultConfig() Config {
	return Config{
		MinEdge:      2,
		MaxEdge:      10,
		MaxAbsSpread: 21,
		MinGames:     0,
		Shrinkage: ShrinkageConfig{
			Policy: PolicyAdditive,
			Cap:    DefaultUncertaintyCap,
			Factors: FactorConfig{
				EarlySeasonWeeks:   4,
				EarlySeasonPenalty: 0.3,
				RosterPenalty:      0.3,
				KeyPlayerPenalty:   0.2,
			},
		},
	}
}

// Rules builds the declarative rule set described by the config
func (c Config) Rules() RuleSet {
	rules := RuleSet{EdgeRange{Min: c.MinEdge, Max: c.MaxEdge}}
	if c.MinAbsSpread != 0 || c.MaxAbsSpread != 0 {
		rules = append(rules, SpreadBand{MinAbs: c.MinAbsSpread, MaxAbs: c.MaxAbsSpread})
	}
	if c.MinGames != 0 {
		rules = append(rules, MinGames{N: c.MinGames})
	}
	if c.Shrinkage.Enabled && c.MaxUncertainty > 0 {
		rules = append(rules, MaxUncertainty{Max: c.MaxUncertainty})
	}
	return rules
}

// Validate fails fast on empty or contradictory thresholds
func (c Config) Validate() error {
	if err := c.Rules().Validate(); err != nil {
		return err
	}
	if c.MaxUncertainty < 0 || c.MaxUncertainty > 1 {
		return fmt.Errorf("%w: max uncertainty must be between 0 and 1", models.ErrInvalidConfiguration)
	}
	if c.Shrinkage.Enabled {
		if _, err := NewPolicy(c.Shrinkage.Policy, c.Shrinkage.Cap); err != nil {
			return err
		}
		if err := c.Shrinkage.Factors.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Verdict is the outcome of qualifying a candidate
type Verdict struct {
	Candidate
	Qualifies bool    `json:"qualifies"`
	Reason    string  `json:"reason"`
	Factors   Factors `json:"factors"`
}

// Edge converts the verdict into its reportable form
func (v Verdict) Edge() models.Edge {
	return models.Edge{
		GameID:           v.GameID,
		HomeTeamID:       v.HomeTeamID,
		AwayTeamID:       v.AwayTeamID,
		MarketSpreadHome: v.MarketSpreadHome,
		ModelSpreadHome:  v.ModelSpreadHome,
		Edge:             v.Result.Edge,
		AbsEdge:          v.Result.AbsEdge,
		Side:             v.Result.Side,
		Uncertainty:      v.Uncertainty,
		EffectiveEdge:    v.EffectiveEdge,
		Qualifies:        v.Qualifies,
		Reason:           v.Reason,
	}
}

// Qualifier applies shrinkage then the rule set
type Qualifier struct {
	rules     RuleSet
	shrinkage *Shrinkage
}

// NewQualifier builds a qualifier from config
func NewQualifier(cfg Config) (*Qualifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var shrink *Shrinkage
	if cfg.Shrinkage.Enabled {
		policy, err := NewPolicy(cfg.Shrinkage.Policy, cfg.Shrinkage.Cap)
		if err != nil {
			return nil, err
		}
		shrink = &Shrinkage{Factors: cfg.Shrinkage.Factors, Policy: policy}
	}
	return NewQualifierFromRules(cfg.Rules(), shrink)
}

// NewQualifierFromRules composes a qualifier from explicit rules.
// A nil shrinkage leaves the effective edge equal to the raw edge.
func NewQualifierFromRules(rules RuleSet, shrink *Shrinkage) (*Qualifier, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if shrink != nil && shrink.Policy == nil {
		return nil, fmt.Errorf("%w: shrinkage policy is required", models.ErrInvalidConfiguration)
	}
	return &Qualifier{rules: rules, shrinkage: shrink}, nil
}

// Qualify decides whether a candidate is a bet
func (q *Qualifier) Qualify(c Candidate) Verdict {
	var factors Factors
	c.EffectiveEdge = c.Result.Edge
	c.Uncertainty = 0
	if q.shrinkage != nil {
		c, factors = q.shrinkage.Apply(c)
	}
	ok, reason := q.rules.Check(c)
	return Verdict{Candidate: c, Qualifies: ok, Reason: reason, Factors: factors}
}

// Rank orders verdicts with qualifying games first, then by absolute effective
// edge descending, then game ID.
func Rank(verdicts []Verdict) []Verdict {
	out := append([]Verdict(nil), verdicts...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Qualifies != out[j].Qualifies {
			return out[i].Qualifies
		}
		if out[i].SelectionEdge() != out[j].SelectionEdge() {
			return out[i].SelectionEdge() > out[j].SelectionEdge()
		}
		return out[i].GameID < out[j].GameID
	})
	return out
}
