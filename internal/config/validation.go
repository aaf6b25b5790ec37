package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/spread-edge/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("checkpoint", validateCheckpoint)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "trace", "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCheckpoint validates the market line selector used for bets
func validateCheckpoint(fl validator.FieldLevel) bool {
	_, err := models.ParseLineSelector(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	bt := cfg.Backtest
	if bt.Train.From == (models.SeasonWeek{}) || bt.Holdout.From == (models.SeasonWeek{}) {
		return fmt.Errorf("%w: backtest train and holdout windows are required", models.ErrInvalidConfiguration)
	}
	if bt.Train.To.Before(bt.Train.From) || bt.Holdout.To.Before(bt.Holdout.From) {
		return fmt.Errorf("%w: backtest windows must not end before they start", models.ErrInvalidConfiguration)
	}
	if !bt.Train.To.Before(bt.Holdout.From) {
		return fmt.Errorf("%w: backtest train window must end before holdout starts", models.ErrInvalidConfiguration)
	}

	if gridEmpty(bt.Grid) {
		return fmt.Errorf("%w: backtest grid must list at least one value", models.ErrInvalidConfiguration)
	}

	q := cfg.Qualification
	if q.MaxEdge > 0 && q.MinEdge > q.MaxEdge {
		return fmt.Errorf("%w: qualification min_edge cannot exceed max_edge", models.ErrInvalidConfiguration)
	}
	for _, lo := range bt.Grid.MinEdge {
		for _, hi := range bt.Grid.MaxEdge {
			if hi > 0 && lo > hi {
				return fmt.Errorf("%w: grid min_edge %.2f exceeds grid max_edge %.2f", models.ErrInvalidConfiguration, lo, hi)
			}
		}
	}
	if q.MaxAbsSpread > 0 && q.MinAbsSpread > q.MaxAbsSpread {
		return fmt.Errorf("%w: qualification min_abs_spread cannot exceed max_abs_spread", models.ErrInvalidConfiguration)
	}
	for _, lo := range bt.Grid.MinAbsSpread {
		for _, hi := range bt.Grid.MaxAbsSpread {
			if hi > 0 && lo > hi {
				return fmt.Errorf("%w: grid min_abs_spread %.1f exceeds grid max_abs_spread %.1f", models.ErrInvalidConfiguration, lo, hi)
			}
		}
	}

	switch cfg.Data.Source {
	case "file":
		if cfg.Data.GamesPath == "" || cfg.Data.LinesPath == "" {
			return fmt.Errorf("%w: file data source requires games_path and lines_path", models.ErrInvalidConfiguration)
		}
	case "postgres":
		if err := validateDatabase(cfg.Database); err != nil {
			return err
		}
	}
	if cfg.Report.ExportDatabase {
		if err := validateDatabase(cfg.Database); err != nil {
			return err
		}
	}

	if cfg.Secrets.Enabled && (cfg.Secrets.Region == "" || cfg.Secrets.SecretName == "") {
		return fmt.Errorf("%w: secrets overlay requires region and secret_name", models.ErrInvalidConfiguration)
	}

	if cfg.IsProduction() && cfg.UsesDatabase() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

func validateDatabase(db DatabaseConfig) error {
	if db.Host == "" || db.Name == "" || db.User == "" || db.Port == 0 {
		return fmt.Errorf("%w: database host, port, name and user are required", models.ErrInvalidConfiguration)
	}
	if db.MaxIdleConnections > db.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}
	return nil
}

func gridEmpty(g GridConfig) bool {
	return g.toBacktest().IsEmpty()
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: trace, debug, info, warn, error\n", field)
		case "checkpoint":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: open, midweek, closing, latest\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("%w: validation failed:\n%s", models.ErrInvalidConfiguration, errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() && cfg.UsesDatabase() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
		if isTestCredential(cfg.Database.User) {
			return fmt.Errorf("production environment should not use test database credentials")
		}
	}
	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
