package backtest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/spread-edge/internal/edge"
	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/odds"
	"github.com/yourusername/spread-edge/internal/projection"
	"github.com/yourusername/spread-edge/internal/rating"
)

// Window is an inclusive range of season-weeks
type Window struct {
	From models.SeasonWeek `json:"from" yaml:"from"`
	To   models.SeasonWeek `json:"to" yaml:"to"`
}

// Contains reports whether sw falls inside the window
func (w Window) Contains(sw models.SeasonWeek) bool {
	if w.IsZero() {
		return false
	}
	return !sw.Before(w.From) && !w.To.Before(sw)
}

// IsZero reports whether the window is unset
func (w Window) IsZero() bool {
	return w.From == (models.SeasonWeek{}) && w.To == (models.SeasonWeek{})
}

func (w Window) String() string {
	return w.From.String() + ".." + w.To.String()
}

// Params is one fully specified model configuration
type Params struct {
	Rating        rating.Config     `json:"rating" yaml:"rating"`
	Projection    projection.Params `json:"projection" yaml:"projection"`
	Qualification edge.Config       `json:"qualification" yaml:"qualification"`
}

// DefaultParams returns the default model configuration
func DefaultParams() Params {
	return Params{
		Rating:        rating.DefaultConfig(),
		Projection:    projection.DefaultParams(),
		Qualification: edge.DefaultConfig(),
	}
}

// Validate validates every component of the configuration
func (p Params) Validate() error {
	if err := p.Rating.Validate(); err != nil {
		return err
	}
	if err := p.Projection.Validate(); err != nil {
		return err
	}
	return p.Qualification.Validate()
}

// Hash returns a stable identifier for the configuration
func (p Params) Hash() string {
	return HashParameters(p)
}

// HashParameters creates a stable hash for any JSON-encodable parameter set
func HashParameters(params any) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}

// Grid lists candidate values per tunable axis. Empty axes keep the base value.
type Grid struct {
	KFactor         []float64 `json:"k_factor,omitempty" yaml:"k_factor"`
	HomeAdvantage   []float64 `json:"home_advantage,omitempty" yaml:"home_advantage"`
	MarginConstant  []float64 `json:"margin_constant,omitempty" yaml:"margin_constant"`
	Carryover       []float64 `json:"carryover,omitempty" yaml:"carryover"`
	HomeFieldPoints []float64 `json:"home_field_points,omitempty" yaml:"home_field_points"`
	Scale           []float64 `json:"scale,omitempty" yaml:"scale"`
	MinEdge         []float64 `json:"min_edge,omitempty" yaml:"min_edge"`
	MaxEdge         []float64 `json:"max_edge,omitempty" yaml:"max_edge"`
	MinAbsSpread    []float64 `json:"min_abs_spread,omitempty" yaml:"min_abs_spread"`
	MaxAbsSpread    []float64 `json:"max_abs_spread,omitempty" yaml:"max_abs_spread"`
	MinGames        []int     `json:"min_games,omitempty" yaml:"min_games"`
	MaxUncertainty  []float64 `json:"max_uncertainty,omitempty" yaml:"max_uncertainty"`

	ShrinkageEnabled   []bool    `json:"shrinkage_enabled,omitempty" yaml:"shrinkage_enabled"`
	ShrinkagePolicy    []string  `json:"shrinkage_policy,omitempty" yaml:"shrinkage_policy"`
	ShrinkageCap       []float64 `json:"shrinkage_cap,omitempty" yaml:"shrinkage_cap"`
	EarlySeasonWeeks   []int     `json:"early_season_weeks,omitempty" yaml:"early_season_weeks"`
	EarlySeasonPenalty []float64 `json:"early_season_penalty,omitempty" yaml:"early_season_penalty"`
	RosterPenalty      []float64 `json:"roster_penalty,omitempty" yaml:"roster_penalty"`
	KeyPlayerPenalty   []float64 `json:"key_player_penalty,omitempty" yaml:"key_player_penalty"`
}

// axis sets the i-th candidate value of one parameter
type axis struct {
	n   int
	set func(p *Params, i int)
}

func valuesAxis[T any](values []T, set func(*Params, T)) axis {
	return axis{n: len(values), set: func(p *Params, i int) { set(p, values[i]) }}
}

func (g Grid) axes() []axis {
	return []axis{
		valuesAxis(g.KFactor, func(p *Params, v float64) { p.Rating.KFactor = v }),
		valuesAxis(g.HomeAdvantage, func(p *Params, v float64) { p.Rating.HomeAdvantage = v }),
		valuesAxis(g.MarginConstant, func(p *Params, v float64) { p.Rating.MarginConstant = v }),
		valuesAxis(g.Carryover, func(p *Params, v float64) { p.Rating.Carryover = v }),
		valuesAxis(g.HomeFieldPoints, func(p *Params, v float64) { p.Projection.HomeFieldPoints = v }),
		valuesAxis(g.Scale, func(p *Params, v float64) { p.Projection.Scale = v }),
		valuesAxis(g.MinEdge, func(p *Params, v float64) { p.Qualification.MinEdge = v }),
		valuesAxis(g.MaxEdge, func(p *Params, v float64) { p.Qualification.MaxEdge = v }),
		valuesAxis(g.MinAbsSpread, func(p *Params, v float64) { p.Qualification.MinAbsSpread = v }),
		valuesAxis(g.MaxAbsSpread, func(p *Params, v float64) { p.Qualification.MaxAbsSpread = v }),
		valuesAxis(g.MinGames, func(p *Params, v int) { p.Qualification.MinGames = v }),
		valuesAxis(g.MaxUncertainty, func(p *Params, v float64) { p.Qualification.MaxUncertainty = v }),
		valuesAxis(g.ShrinkageEnabled, func(p *Params, v bool) { p.Qualification.Shrinkage.Enabled = v }),
		valuesAxis(g.ShrinkagePolicy, func(p *Params, v string) { p.Qualification.Shrinkage.Policy = v }),
		valuesAxis(g.ShrinkageCap, func(p *Params, v float64) { p.Qualification.Shrinkage.Cap = v }),
		valuesAxis(g.EarlySeasonWeeks, func(p *Params, v int) { p.Qualification.Shrinkage.Factors.EarlySeasonWeeks = v }),
		valuesAxis(g.EarlySeasonPenalty, func(p *Params, v float64) { p.Qualification.Shrinkage.Factors.EarlySeasonPenalty = v }),
		valuesAxis(g.RosterPenalty, func(p *Params, v float64) { p.Qualification.Shrinkage.Factors.RosterPenalty = v }),
		valuesAxis(g.KeyPlayerPenalty, func(p *Params, v float64) { p.Qualification.Shrinkage.Factors.KeyPlayerPenalty = v }),
	}
}

// IsEmpty reports whether no axis has values
func (g Grid) IsEmpty() bool {
	for _, a := range g.axes() {
		if a.n > 0 {
			return false
		}
	}
	return true
}

// Size returns the number of combinations
func (g Grid) Size() int {
	if g.IsEmpty() {
		return 0
	}
	n := 1
	for _, a := range g.axes() {
		if a.n > 0 {
			n *= a.n
		}
	}
	return n
}

// Expand returns the Cartesian product of the grid applied over base.
// The first axis varies slowest.
func (g Grid) Expand(base Params) []Params {
	if g.IsEmpty() {
		return nil
	}
	var active []axis
	for _, a := range g.axes() {
		if a.n > 0 {
			active = append(active, a)
		}
	}

	out := make([]Params, 0, g.Size())
	pos := make([]int, len(active))
	for {
		p := base
		for i, a := range active {
			a.set(&p, pos[i])
		}
		out = append(out, p)

		i := len(active) - 1
		for ; i >= 0; i-- {
			pos[i]++
			if pos[i] < active[i].n {
				break
			}
			pos[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// PricingConfig controls how winning bets are paid
type PricingConfig struct {
	Payout    float64 `json:"payout" yaml:"payout"`
	UsePrices bool    `json:"use_prices" yaml:"use_prices"`
}

// WalkForwardConfig configures season-based walk-forward validation
type WalkForwardConfig struct {
	Enabled         bool `json:"enabled" yaml:"enabled"`
	MinTrainSeasons int  `json:"min_train_seasons" yaml:"min_train_seasons"`
	MinBets         int  `json:"min_bets" yaml:"min_bets"`
}

// Config is the immutable configuration of a backtest run. A candidate is
// eligible only when its wins plus losses exceed MinSampleSize.
type Config struct {
	Seasons         []int               `json:"seasons,omitempty" yaml:"seasons"`
	Train           Window              `json:"train" yaml:"train"`
	Holdout         Window              `json:"holdout" yaml:"holdout"`
	Base            Params              `json:"base" yaml:"base"`
	Grid            Grid                `json:"grid" yaml:"grid"`
	MinSampleSize   int                 `json:"min_sample_size" yaml:"min_sample_size"`
	BetLine         models.LineSelector `json:"bet_line" yaml:"bet_line"`
	Pricing         PricingConfig       `json:"pricing" yaml:"pricing"`
	CoverSigma      float64             `json:"cover_sigma" yaml:"cover_sigma"`
	EdgeBuckets     []float64           `json:"edge_buckets" yaml:"edge_buckets"`
	MinBucketSample int                 `json:"min_bucket_sample" yaml:"min_bucket_sample"`
	CalibrationBins int                 `json:"calibration_bins" yaml:"calibration_bins"`
	Bootstrap       BootstrapConfig     `json:"bootstrap" yaml:"bootstrap"`
	Workers         int                 `json:"workers" yaml:"workers"`
	MaxCandidates   int                 `json:"max_candidates,omitempty" yaml:"max_candidates"`
	WalkForward     WalkForwardConfig   `json:"walk_forward" yaml:"walk_forward"`
}

// DefaultConfig returns a config with every knob except the windows and grid set
func DefaultConfig() Config {
	return Config{
		Base:            DefaultParams(),
		MinSampleSize:   50,
		BetLine:         models.SelectClosing,
		Pricing:         PricingConfig{Payout: odds.StandardPayout},
		CoverSigma:      13.5,
		EdgeBuckets:     []float64{0, 2, 3, 4, 5, 7},
		MinBucketSample: 20,
		CalibrationBins: 10,
		Bootstrap: BootstrapConfig{
			Iterations: 1000,
			Seed:       42,
			Confidence: 0.95,
		},
		WalkForward: WalkForwardConfig{MinTrainSeasons: 2, MinBets: 20},
	}
}

// Split is the first season-week that belongs to the holdout period
func (c Config) Split() models.SeasonWeek {
	return c.Holdout.From
}

// Candidates expands the grid over the base params, capped by MaxCandidates
func (c Config) Candidates() []Params {
	out := c.Grid.Expand(c.Base)
	if c.MaxCandidates > 0 && len(out) > c.MaxCandidates {
		out = out[:c.MaxCandidates]
	}
	return out
}

// Validate fails fast on empty or contradictory configuration
func (c Config) Validate() error {
	if c.Train.IsZero() || c.Holdout.IsZero() {
		return invalid("train and holdout windows are required")
	}
	if c.Train.To.Before(c.Train.From) {
		return invalid("train window %s ends before it starts", c.Train)
	}
	if c.Holdout.To.Before(c.Holdout.From) {
		return invalid("holdout window %s ends before it starts", c.Holdout)
	}
	if !c.Train.To.Before(c.Holdout.From) {
		return invalid("train window %s must end before holdout %s", c.Train, c.Holdout)
	}
	if c.MinSampleSize < 0 {
		return invalid("min sample size cannot be negative")
	}
	if _, err := models.ParseLineSelector(string(c.BetLine)); err != nil {
		return err
	}
	if c.Pricing.Payout <= 0 || math.IsNaN(c.Pricing.Payout) {
		return invalid("payout must be positive")
	}
	if c.CoverSigma <= 0 || math.IsNaN(c.CoverSigma) {
		return invalid("cover sigma must be positive")
	}
	if len(c.EdgeBuckets) == 0 || !sort.Float64sAreSorted(c.EdgeBuckets) {
		return invalid("edge buckets must be a non-empty ascending list")
	}
	for i := 1; i < len(c.EdgeBuckets); i++ {
		if c.EdgeBuckets[i] == c.EdgeBuckets[i-1] {
			return invalid("edge bucket bound %.2f is repeated", c.EdgeBuckets[i])
		}
	}
	if c.CalibrationBins < 0 || c.MinBucketSample < 0 {
		return invalid("calibration bins and bucket sample cannot be negative")
	}
	if err := c.Bootstrap.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 || c.MaxCandidates < 0 {
		return invalid("workers and max candidates cannot be negative")
	}
	if c.WalkForward.Enabled && c.WalkForward.MinTrainSeasons < 1 {
		return invalid("walk-forward needs at least one training season")
	}
	if c.Grid.IsEmpty() {
		return invalid("hyperparameter grid is empty")
	}
	for i, p := range c.Candidates() {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("grid candidate %d: %w", i, err)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
