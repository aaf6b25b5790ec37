// Package config provides configuration management for the spread-edge engine.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/spread-edge/internal/models"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" validate:"required"`
	Data          DataConfig          `mapstructure:"data" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Secrets       SecretsConfig       `mapstructure:"secrets"`
	Rating        RatingConfig        `mapstructure:"rating" validate:"required"`
	Projection    ProjectionConfig    `mapstructure:"projection" validate:"required"`
	Qualification QualificationConfig `mapstructure:"qualification" validate:"required"`
	Shrinkage     ShrinkageConfig     `mapstructure:"shrinkage"`
	Backtest      BacktestConfig      `mapstructure:"backtest" validate:"required"`
	Report        ReportConfig        `mapstructure:"report"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Serve         ServeConfig         `mapstructure:"serve"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogFormat   string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// DataConfig selects where games, lines and team metadata are read from
type DataConfig struct {
	Source    string `mapstructure:"source" validate:"required,oneof=file postgres"`
	GamesPath string `mapstructure:"games_path"`
	LinesPath string `mapstructure:"lines_path"`
	TeamsPath string `mapstructure:"teams_path"`
	Calendar  string `mapstructure:"calendar" validate:"omitempty,oneof=nfl ncaaf"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// SecretsConfig enables the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// RatingConfig holds the base Elo hyperparameters
type RatingConfig struct {
	BaseRating     float64 `mapstructure:"base_rating" validate:"gt=0"`
	KFactor        float64 `mapstructure:"k_factor" validate:"gt=0"`
	HomeAdvantage  float64 `mapstructure:"home_advantage" validate:"gte=0"`
	Divisor        float64 `mapstructure:"divisor" validate:"gt=0"`
	MarginConstant float64 `mapstructure:"margin_constant" validate:"gte=0"`
	Carryover      float64 `mapstructure:"carryover" validate:"gte=0,lte=1"`
}

// ProjectionConfig converts rating differences into points
type ProjectionConfig struct {
	HomeFieldPoints float64 `mapstructure:"home_field_points"`
	Scale           float64 `mapstructure:"scale" validate:"gt=0"`
}

// QualificationConfig holds the bet qualification thresholds
type QualificationConfig struct {
	MinEdge        float64 `mapstructure:"min_edge" validate:"gte=0"`
	MaxEdge        float64 `mapstructure:"max_edge" validate:"gte=0"`
	MinAbsSpread   float64 `mapstructure:"min_abs_spread" validate:"gte=0"`
	MaxAbsSpread   float64 `mapstructure:"max_abs_spread" validate:"gte=0"`
	MinGames       int     `mapstructure:"min_games" validate:"gte=0"`
	MaxUncertainty float64 `mapstructure:"max_uncertainty" validate:"gte=0,lte=1"`
}

// ShrinkageConfig configures uncertainty shrinkage of the raw edge
type ShrinkageConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	Policy             string  `mapstructure:"policy" validate:"omitempty,oneof=additive multiplicative"`
	Cap                float64 `mapstructure:"cap" validate:"gte=0,lte=1"`
	EarlySeasonWeeks   int     `mapstructure:"early_season_weeks" validate:"gte=0"`
	EarlySeasonPenalty float64 `mapstructure:"early_season_penalty" validate:"gte=0,lte=1"`
	RosterPenalty      float64 `mapstructure:"roster_penalty" validate:"gte=0,lte=1"`
	KeyPlayerPenalty   float64 `mapstructure:"key_player_penalty" validate:"gte=0,lte=1"`
}

// WindowConfig is an inclusive season-week range
type WindowConfig struct {
	From models.SeasonWeek `mapstructure:"from"`
	To   models.SeasonWeek `mapstructure:"to"`
}

// GridConfig lists candidate values per tunable hyperparameter
type GridConfig struct {
	KFactor         []float64 `mapstructure:"k_factor"`
	HomeAdvantage   []float64 `mapstructure:"home_advantage"`
	MarginConstant  []float64 `mapstructure:"margin_constant"`
	Carryover       []float64 `mapstructure:"carryover"`
	HomeFieldPoints []float64 `mapstructure:"home_field_points"`
	Scale           []float64 `mapstructure:"scale"`
	MinEdge         []float64 `mapstructure:"min_edge"`
	MaxEdge         []float64 `mapstructure:"max_edge"`
	MinAbsSpread    []float64 `mapstructure:"min_abs_spread"`
	MaxAbsSpread    []float64 `mapstructure:"max_abs_spread"`
	MinGames        []int     `mapstructure:"min_games"`
	MaxUncertainty  []float64 `mapstructure:"max_uncertainty"`

	ShrinkageEnabled   []bool    `mapstructure:"shrinkage_enabled"`
	ShrinkagePolicy    []string  `mapstructure:"shrinkage_policy"`
	ShrinkageCap       []float64 `mapstructure:"shrinkage_cap"`
	EarlySeasonWeeks   []int     `mapstructure:"early_season_weeks"`
	EarlySeasonPenalty []float64 `mapstructure:"early_season_penalty"`
	RosterPenalty      []float64 `mapstructure:"roster_penalty"`
	KeyPlayerPenalty   []float64 `mapstructure:"key_player_penalty"`
}

// BootstrapConfig configures resampled confidence intervals
type BootstrapConfig struct {
	Iterations int     `mapstructure:"iterations" validate:"gte=0"`
	Seed       int64   `mapstructure:"seed"`
	Confidence float64 `mapstructure:"confidence" validate:"gt=0,lt=1"`
}

// WalkForwardConfig configures season-based walk-forward validation
type WalkForwardConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MinTrainSeasons int  `mapstructure:"min_train_seasons" validate:"gte=0"`
	MinBets         int  `mapstructure:"min_bets" validate:"gte=0"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	Seasons         []int             `mapstructure:"seasons"`
	Train           WindowConfig      `mapstructure:"train"`
	Holdout         WindowConfig      `mapstructure:"holdout"`
	Grid            GridConfig        `mapstructure:"grid"`
	MinSampleSize   int               `mapstructure:"min_sample_size" validate:"gte=0"`
	BetCheckpoint   string            `mapstructure:"bet_checkpoint" validate:"required,checkpoint"`
	Payout          float64           `mapstructure:"payout" validate:"gt=0"`
	UsePrices       bool              `mapstructure:"use_prices"`
	CoverSigma      float64           `mapstructure:"cover_sigma" validate:"gt=0"`
	EdgeBuckets     []float64         `mapstructure:"edge_buckets" validate:"required,min=1"`
	MinBucketSample int               `mapstructure:"min_bucket_sample" validate:"gte=0"`
	CalibrationBins int               `mapstructure:"calibration_bins" validate:"gte=0"`
	Bootstrap       BootstrapConfig   `mapstructure:"bootstrap"`
	Workers         int               `mapstructure:"workers" validate:"gte=0"`
	MaxCandidates   int               `mapstructure:"max_candidates" validate:"gte=0"`
	WalkForward     WalkForwardConfig `mapstructure:"walk_forward"`
}

// ReportConfig controls where backtest reports are written
type ReportConfig struct {
	OutputDir      string   `mapstructure:"output_dir"`
	Formats        []string `mapstructure:"formats" validate:"dive,oneof=console json yaml csv html"`
	ExportDatabase bool     `mapstructure:"export_database"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// ServeConfig controls the long-running ratings server
type ServeConfig struct {
	Port            string        `mapstructure:"port"`
	RefreshSchedule string        `mapstructure:"refresh_schedule"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	BetCheckpoint   string        `mapstructure:"bet_checkpoint" validate:"omitempty,checkpoint"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesDatabase reports whether any component needs a database connection
func (c *Config) UsesDatabase() bool {
	return c.Data.Source == "postgres" || c.Report.ExportDatabase
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
