package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/spread-edge/internal/backtest"
	"github.com/yourusername/spread-edge/internal/edge"
	"github.com/yourusername/spread-edge/internal/projection"
	"github.com/yourusername/spread-edge/internal/rating"
)

const (
	envPrefix         = "SPREAD_EDGE"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// ReloadFromEnv reloads the configuration from SPREAD_EDGE_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "spread-edge")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("data.source", "file")
	v.SetDefault("data.calendar", "nfl")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	r := rating.DefaultConfig()
	v.SetDefault("rating.base_rating", r.BaseRating)
	v.SetDefault("rating.k_factor", r.KFactor)
	v.SetDefault("rating.home_advantage", r.HomeAdvantage)
	v.SetDefault("rating.divisor", r.Divisor)
	v.SetDefault("rating.margin_constant", r.MarginConstant)
	v.SetDefault("rating.carryover", r.Carryover)

	p := projection.DefaultParams()
	v.SetDefault("projection.home_field_points", p.HomeFieldPoints)
	v.SetDefault("projection.scale", p.Scale)

	q := edge.DefaultConfig()
	v.SetDefault("qualification.min_edge", q.MinEdge)
	v.SetDefault("qualification.max_edge", q.MaxEdge)
	v.SetDefault("qualification.max_abs_spread", q.MaxAbsSpread)
	v.SetDefault("shrinkage.policy", q.Shrinkage.Policy)
	v.SetDefault("shrinkage.cap", q.Shrinkage.Cap)
	v.SetDefault("shrinkage.early_season_weeks", q.Shrinkage.Factors.EarlySeasonWeeks)
	v.SetDefault("shrinkage.early_season_penalty", q.Shrinkage.Factors.EarlySeasonPenalty)
	v.SetDefault("shrinkage.roster_penalty", q.Shrinkage.Factors.RosterPenalty)
	v.SetDefault("shrinkage.key_player_penalty", q.Shrinkage.Factors.KeyPlayerPenalty)

	b := backtest.DefaultConfig()
	v.SetDefault("backtest.min_sample_size", b.MinSampleSize)
	v.SetDefault("backtest.bet_checkpoint", string(b.BetLine))
	v.SetDefault("backtest.payout", b.Pricing.Payout)
	v.SetDefault("backtest.cover_sigma", b.CoverSigma)
	v.SetDefault("backtest.edge_buckets", b.EdgeBuckets)
	v.SetDefault("backtest.min_bucket_sample", b.MinBucketSample)
	v.SetDefault("backtest.calibration_bins", b.CalibrationBins)
	v.SetDefault("backtest.bootstrap.iterations", b.Bootstrap.Iterations)
	v.SetDefault("backtest.bootstrap.seed", b.Bootstrap.Seed)
	v.SetDefault("backtest.bootstrap.confidence", b.Bootstrap.Confidence)
	v.SetDefault("backtest.walk_forward.min_train_seasons", b.WalkForward.MinTrainSeasons)
	v.SetDefault("backtest.walk_forward.min_bets", b.WalkForward.MinBets)

	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.formats", []string{"console"})
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("serve.port", "8080")
	v.SetDefault("serve.refresh_schedule", "@every 1h")
	v.SetDefault("serve.cache_ttl", "10m")
	v.SetDefault("serve.bet_checkpoint", "latest")
}
