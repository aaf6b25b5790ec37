package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/yourusername/spread-edge/internal/models"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expansionConfigPath          = "testdata/expansion_config.yaml"
	expansionConfigMissingPath   = "testdata/expansion_config_missing.yaml"
	partialConfigPath            = "testdata/partial_config.yaml"
	nonexistentConfigPath        = "testdata/nonexistent_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
	expectedNoErrorMsg           = "expected no error, got %v"
	expectedNonNilConfig         = "expected non-nil config"
	spreadEdgeName               = "spread-edge"
	developmentEnv               = "development"
	invalidEnv                   = "invalid"
	localhostHost                = "localhost"
	postgresPort                 = 5432
	postgresPrefix               = "postgres://"
	testAppName                  = "test-app"
	testDBPassword               = "TEST_DB_PASSWORD"
	testMissingVar               = "TEST_MISSING_VAR"
	expandedSecretValue          = "expanded_secret_value"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}
	return cfg
}

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}

	if cfg.App.Name != spreadEdgeName {
		t.Errorf("expected app name '%s', got '%s'", spreadEdgeName, cfg.App.Name)
	}

	if cfg.App.Environment != developmentEnv {
		t.Errorf("expected environment '%s', got '%s'", developmentEnv, cfg.App.Environment)
	}

	if cfg.Database.Host != localhostHost {
		t.Errorf("expected database host '%s', got '%s'", localhostHost, cfg.Database.Host)
	}

	if cfg.Database.Port != postgresPort {
		t.Errorf("expected database port %d, got %d", postgresPort, cfg.Database.Port)
	}

	want := models.SeasonWeek{Season: 2023, Week: 1}
	if cfg.Backtest.Holdout.From != want {
		t.Errorf("expected holdout start %v, got %v", want, cfg.Backtest.Holdout.From)
	}

	if len(cfg.Backtest.Grid.KFactor) != 3 || cfg.Backtest.Grid.KFactor[2] != 24 {
		t.Errorf("expected k_factor grid [16 20 24], got %v", cfg.Backtest.Grid.KFactor)
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	os.Setenv("SPREAD_EDGE_APP_NAME", testAppName)
	defer os.Unsetenv("SPREAD_EDGE_APP_NAME")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != testAppName {
		t.Errorf("expected app name '%s' from environment, got '%s'", testAppName, cfg.App.Name)
	}
}

// TestLoadWithDefaults tests that omitted sections fall back to engine defaults
func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(partialConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if cfg.App.Name != "partial" {
		t.Errorf("expected app name 'partial', got '%s'", cfg.App.Name)
	}
	if cfg.Rating.KFactor != 20 || cfg.Rating.Divisor != 400 {
		t.Errorf("expected default rating config, got %+v", cfg.Rating)
	}
	if cfg.Backtest.BetCheckpoint != "closing" {
		t.Errorf("expected default checkpoint 'closing', got '%s'", cfg.Backtest.BetCheckpoint)
	}
	if len(cfg.Report.Formats) != 1 || cfg.Report.Formats[0] != "console" {
		t.Errorf("expected default report format console, got %v", cfg.Report.Formats)
	}
	if cfg.Serve.CacheTTL != 10*time.Minute || cfg.Serve.RefreshSchedule != "@every 1h" {
		t.Errorf("expected default serve config, got %+v", cfg.Serve)
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

// TestLoadWithDefaultsMissingFile tests that a missing file is not an error
func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cfg.App.Name != spreadEdgeName {
		t.Errorf("expected default app name, got '%s'", cfg.App.Name)
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error without backtest windows")
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	cfg := loadValid(t)

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
	if err := ValidateEnvironment(cfg); err != nil {
		t.Fatalf("expected no environment error, got %v", err)
	}
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg := loadValid(t)

	cfg.App.Environment = invalidEnv
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
	if !strings.Contains(err.Error(), "Environment") {
		t.Errorf("expected environment validation error, got: %v", err)
	}
	if !errors.Is(err, models.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

// TestValidateRejectsBadValues tests field and cross-field failures
func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.App.LogLevel = "verbose" }},
		{"checkpoint", func(c *Config) { c.Backtest.BetCheckpoint = "kickoff" }},
		{"serve checkpoint", func(c *Config) { c.Serve.BetCheckpoint = "kickoff" }},
		{"confidence", func(c *Config) { c.Backtest.Bootstrap.Confidence = 1 }},
		{"report format", func(c *Config) { c.Report.Formats = []string{"pdf"} }},
		{"train overlaps holdout", func(c *Config) { c.Backtest.Train.To = models.SeasonWeek{Season: 2023, Week: 3} }},
		{"empty grid", func(c *Config) { c.Backtest.Grid = GridConfig{} }},
		{"min edge above max", func(c *Config) { c.Qualification.MinEdge = 12 }},
		{"grid min edge above max", func(c *Config) { c.Backtest.Grid.MaxEdge = []float64{1} }},
		{"grid min spread above max", func(c *Config) {
			c.Backtest.Grid.MinAbsSpread = []float64{3, 10}
			c.Backtest.Grid.MaxAbsSpread = []float64{7}
		}},
		{"missing games path", func(c *Config) { c.Data.GamesPath = "" }},
		{"postgres without host", func(c *Config) {
			c.Data.Source = "postgres"
			c.Database.Host = ""
		}},
		{"idle above max connections", func(c *Config) {
			c.Report.ExportDatabase = true
			c.Database.MaxIdleConnections = 20
		}},
		{"secrets without region", func(c *Config) {
			c.Secrets.Enabled = true
			c.Secrets.SecretName = "spread-edge/db"
		}},
		{"production without ssl", func(c *Config) {
			c.App.Environment = "production"
			c.Data.Source = "postgres"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// TestValidateEnvironmentTestCredentials tests the production credential check
func TestValidateEnvironmentTestCredentials(t *testing.T) {
	cfg := loadValid(t)
	cfg.App.Environment = "production"
	cfg.Data.Source = "postgres"
	cfg.Database.SSLMode = "require"
	cfg.Database.User = "test_user"

	if err := ValidateEnvironment(cfg); err == nil {
		t.Fatal("expected error for test credentials in production")
	}

	cfg.Database.User = "edge_reader"
	if err := ValidateEnvironment(cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
}

// TestGetDatabaseDSN tests DSN generation
func TestGetDatabaseDSN(t *testing.T) {
	cfg := loadValid(t)

	dsn := cfg.GetDatabaseDSN()
	if !strings.HasPrefix(dsn, postgresPrefix) {
		t.Errorf("expected DSN to start with '%s', got '%s'", postgresPrefix, dsn)
	}
	if !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("expected DSN to carry ssl mode, got '%s'", dsn)
	}
}

// TestIsDevelopment tests environment check function
func TestIsDevelopment(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: developmentEnv},
	}

	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return true")
	}

	if cfg.IsProduction() {
		t.Error("expected IsProduction() to return false")
	}
}

// TestIsProduction tests production environment check
func TestIsProduction(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: "production"},
	}

	if !cfg.IsProduction() {
		t.Error("expected IsProduction() to return true")
	}

	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return false")
	}
}

// TestUsesDatabase tests when a connection is required
func TestUsesDatabase(t *testing.T) {
	cfg := &Config{Data: DataConfig{Source: "file"}}
	if cfg.UsesDatabase() {
		t.Error("expected file source not to use database")
	}
	cfg.Report.ExportDatabase = true
	if !cfg.UsesDatabase() {
		t.Error("expected database export to use database")
	}
}

// TestLoadConfigEnvironmentVariableExpansion tests environment variable expansion in config file
func TestLoadConfigEnvironmentVariableExpansion(t *testing.T) {
	os.Setenv(testDBPassword, expandedSecretValue)
	defer os.Unsetenv(testDBPassword)

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config with expansion, got %v", err)
	}

	if cfg.Database.Password != expandedSecretValue {
		t.Errorf("expected password '%s' from environment expansion, got '%s'", expandedSecretValue, cfg.Database.Password)
	}
}

// TestLoadConfigMissingEnvironmentVariable tests handling of missing environment variables
func TestLoadConfigMissingEnvironmentVariable(t *testing.T) {
	os.Unsetenv(testMissingVar)

	cfg, err := Load(expansionConfigMissingPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	// os.ExpandEnv replaces unset variables with the empty string
	if cfg.Database.Password != "" {
		t.Errorf("expected empty password, got %q", cfg.Database.Password)
	}
}

// TestToBacktest tests mapping onto the backtest run configuration
func TestToBacktest(t *testing.T) {
	cfg := loadValid(t)

	bt, err := ToBacktest(cfg)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if got := len(bt.Candidates()); got != 9 {
		t.Errorf("expected 9 candidates, got %d", got)
	}
	if bt.BetLine != models.SelectClosing {
		t.Errorf("expected closing line, got %s", bt.BetLine)
	}
	if bt.Split() != (models.SeasonWeek{Season: 2023, Week: 1}) {
		t.Errorf("unexpected split %v", bt.Split())
	}
	if !bt.Base.Qualification.Shrinkage.Enabled || bt.Base.Qualification.Shrinkage.Factors.EarlySeasonWeeks != 4 {
		t.Errorf("expected shrinkage to be mapped, got %+v", bt.Base.Qualification.Shrinkage)
	}
	if bt.Bootstrap.Workers != 4 || !bt.WalkForward.Enabled {
		t.Errorf("expected workers and walk-forward to be mapped, got %+v %+v", bt.Bootstrap, bt.WalkForward)
	}

	cfg.Backtest.BetCheckpoint = "kickoff"
	if _, err := ToBacktest(cfg); err == nil {
		t.Fatal("expected error for unknown checkpoint")
	}
}

// TestToBacktestQualificationAxes tests that qualification thresholds reach the grid
func TestToBacktestQualificationAxes(t *testing.T) {
	cfg := loadValid(t)
	cfg.Backtest.Grid.MinAbsSpread = []float64{0, 3}
	cfg.Backtest.Grid.MinGames = []int{0, 2}
	cfg.Backtest.Grid.ShrinkagePolicy = []string{"additive", "multiplicative"}

	bt, err := ToBacktest(cfg)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	candidates := bt.Candidates()
	if len(candidates) != 72 {
		t.Fatalf("expected 72 candidates, got %d", len(candidates))
	}
	last := candidates[len(candidates)-1].Qualification
	if last.MinAbsSpread != 3 || last.MinGames != 2 || last.Shrinkage.Policy != "multiplicative" {
		t.Errorf("expected last candidate to carry the final axis values, got %+v", last)
	}

	cfg.Backtest.Grid.ShrinkagePolicy = []string{"sqrt"}
	if _, err := ToBacktest(cfg); err == nil {
		t.Fatal("expected error for unknown shrinkage policy")
	}
}

type stubSecrets struct {
	value string
	err   error
	asked string
}

func (s *stubSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	s.asked = aws.ToString(params.SecretId)
	if s.err != nil {
		return nil, s.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(s.value)}, nil
}

// TestLoadSecretsWithClient tests overlaying credentials from Secrets Manager
func TestLoadSecretsWithClient(t *testing.T) {
	cfg := loadValid(t)
	cfg.Secrets = SecretsConfig{Enabled: true, Region: "us-east-1", SecretName: "spread-edge/db"}

	client := &stubSecrets{value: `{"database_password":"from-secrets"}`}
	if err := LoadSecretsWithClient(context.Background(), cfg, client); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if client.asked != "spread-edge/db" {
		t.Errorf("expected secret name to be requested, got %q", client.asked)
	}
	if cfg.Database.Password != "from-secrets" {
		t.Errorf("expected overlaid password, got %q", cfg.Database.Password)
	}
	if cfg.Database.User != "spread_edge" {
		t.Errorf("expected user to be kept, got %q", cfg.Database.User)
	}

	bad := &stubSecrets{value: "not json"}
	if err := LoadSecretsWithClient(context.Background(), cfg, bad); err == nil {
		t.Fatal("expected error for malformed secret")
	}

	failing := &stubSecrets{err: errors.New("access denied")}
	if err := LoadSecretsWithClient(context.Background(), cfg, failing); err == nil {
		t.Fatal("expected error when secret lookup fails")
	}
}

// TestLoadSecretsDisabled tests that disabled secrets make no AWS calls
func TestLoadSecretsDisabled(t *testing.T) {
	cfg := loadValid(t)
	if err := LoadSecrets(context.Background(), cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
}
