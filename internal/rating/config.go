package rating

import (
	"fmt"
	"math"

	"github.com/yourusername/spread-edge/internal/models"
)

// Config holds the Elo hyperparameters for a rating system
type Config struct {
	BaseRating     float64 `json:"base_rating" yaml:"base_rating"`
	KFactor        float64 `json:"k_factor" yaml:"k_factor"`
	HomeAdvantage  float64 `json:"home_advantage" yaml:"home_advantage"`
	Divisor        float64 `json:"divisor" yaml:"divisor"`
	MarginConstant float64 `json:"margin_constant" yaml:"margin_constant"`
	Carryover      float64 `json:"carryover" yaml:"carryover"`
}

// DefaultConfig returns a conventional football Elo configuration
func DefaultConfig() Config {
	return Config{
		BaseRating:     1500,
		KFactor:        20,
		HomeAdvantage:  55,
		Divisor:        400,
		MarginConstant: 1,
		Carryover:      0.6,
	}
}

// Validate validates rating hyperparameters
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"base rating":     c.BaseRating,
		"k factor":        c.KFactor,
		"home advantage":  c.HomeAdvantage,
		"divisor":         c.Divisor,
		"margin constant": c.MarginConstant,
		"carryover":       c.Carryover,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", models.ErrInvalidConfiguration, name)
		}
	}
	if c.KFactor <= 0 {
		return fmt.Errorf("%w: k factor must be positive", models.ErrInvalidConfiguration)
	}
	if c.Divisor <= 0 {
		return fmt.Errorf("%w: divisor must be positive", models.ErrInvalidConfiguration)
	}
	if c.MarginConstant <= 0 {
		return fmt.Errorf("%w: margin constant must be positive", models.ErrInvalidConfiguration)
	}
	if c.Carryover < 0 || c.Carryover > 1 {
		return fmt.Errorf("%w: carryover must be between 0 and 1", models.ErrInvalidConfiguration)
	}
	return nil
}
