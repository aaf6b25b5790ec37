package config

import (
	"github.com/yourusername/spread-edge/internal/backtest"
	"github.com/yourusername/spread-edge/internal/edge"
	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/projection"
	"github.com/yourusername/spread-edge/internal/rating"
)

// RatingParams returns the configured Elo hyperparameters
func (c *Config) RatingParams() rating.Config {
	return rating.Config{
		BaseRating:     c.Rating.BaseRating,
		KFactor:        c.Rating.KFactor,
		HomeAdvantage:  c.Rating.HomeAdvantage,
		Divisor:        c.Rating.Divisor,
		MarginConstant: c.Rating.MarginConstant,
		Carryover:      c.Rating.Carryover,
	}
}

// ProjectionParams returns the configured spread conversion constants
func (c *Config) ProjectionParams() projection.Params {
	return projection.Params{
		HomeFieldPoints: c.Projection.HomeFieldPoints,
		Scale:           c.Projection.Scale,
	}
}

// QualificationParams returns the configured qualification thresholds
func (c *Config) QualificationParams() edge.Config {
	return edge.Config{
		MinEdge:        c.Qualification.MinEdge,
		MaxEdge:        c.Qualification.MaxEdge,
		MinAbsSpread:   c.Qualification.MinAbsSpread,
		MaxAbsSpread:   c.Qualification.MaxAbsSpread,
		MinGames:       c.Qualification.MinGames,
		MaxUncertainty: c.Qualification.MaxUncertainty,
		Shrinkage: edge.ShrinkageConfig{
			Enabled: c.Shrinkage.Enabled,
			Policy:  c.Shrinkage.Policy,
			Cap:     c.Shrinkage.Cap,
			Factors: edge.FactorConfig{
				EarlySeasonWeeks:   c.Shrinkage.EarlySeasonWeeks,
				EarlySeasonPenalty: c.Shrinkage.EarlySeasonPenalty,
				RosterPenalty:      c.Shrinkage.RosterPenalty,
				KeyPlayerPenalty:   c.Shrinkage.KeyPlayerPenalty,
			},
		},
	}
}

// ModelParams returns the full base model configuration
func (c *Config) ModelParams() backtest.Params {
	return backtest.Params{
		Rating:        c.RatingParams(),
		Projection:    c.ProjectionParams(),
		Qualification: c.QualificationParams(),
	}
}

func (g GridConfig) toBacktest() backtest.Grid {
	return backtest.Grid{
		KFactor:            g.KFactor,
		HomeAdvantage:      g.HomeAdvantage,
		MarginConstant:     g.MarginConstant,
		Carryover:          g.Carryover,
		HomeFieldPoints:    g.HomeFieldPoints,
		Scale:              g.Scale,
		MinEdge:            g.MinEdge,
		MaxEdge:            g.MaxEdge,
		MinAbsSpread:       g.MinAbsSpread,
		MaxAbsSpread:       g.MaxAbsSpread,
		MinGames:           g.MinGames,
		MaxUncertainty:     g.MaxUncertainty,
		ShrinkageEnabled:   g.ShrinkageEnabled,
		ShrinkagePolicy:    g.ShrinkagePolicy,
		ShrinkageCap:       g.ShrinkageCap,
		EarlySeasonWeeks:   g.EarlySeasonWeeks,
		EarlySeasonPenalty: g.EarlySeasonPenalty,
		RosterPenalty:      g.RosterPenalty,
		KeyPlayerPenalty:   g.KeyPlayerPenalty,
	}
}

// ToBacktest maps the loaded configuration onto a validated backtest run config
func ToBacktest(cfg *Config) (backtest.Config, error) {
	bt := cfg.Backtest
	selector, err := models.ParseLineSelector(bt.BetCheckpoint)
	if err != nil {
		return backtest.Config{}, err
	}

	out := backtest.Config{
		Seasons:         bt.Seasons,
		Train:           backtest.Window{From: bt.Train.From, To: bt.Train.To},
		Holdout:         backtest.Window{From: bt.Holdout.From, To: bt.Holdout.To},
		Base:            cfg.ModelParams(),
		Grid:            bt.Grid.toBacktest(),
		MinSampleSize:   bt.MinSampleSize,
		BetLine:         selector,
		Pricing:         backtest.PricingConfig{Payout: bt.Payout, UsePrices: bt.UsePrices},
		CoverSigma:      bt.CoverSigma,
		EdgeBuckets:     bt.EdgeBuckets,
		MinBucketSample: bt.MinBucketSample,
		CalibrationBins: bt.CalibrationBins,
		Bootstrap: backtest.BootstrapConfig{
			Iterations: bt.Bootstrap.Iterations,
			Seed:       bt.Bootstrap.Seed,
			Confidence: bt.Bootstrap.Confidence,
			Workers:    bt.Workers,
		},
		Workers:       bt.Workers,
		MaxCandidates: bt.MaxCandidates,
		WalkForward: backtest.WalkForwardConfig{
			Enabled:         bt.WalkForward.Enabled,
			MinTrainSeasons: bt.WalkForward.MinTrainSeasons,
			MinBets:         bt.WalkForward.MinBets,
		},
	}

	if err := out.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return out, nil
}
