// Package odds converts American prices into payouts and probabilities.
package odds

import (
	"fmt"
	"math"

	"github.com/atgjack/prob"
	"github.com/shopspring/decimal"
	"github.com/yourusername/spread-edge/internal/models"
)

// StandardPayout is the profit per unit staked at -110
const StandardPayout = 0.91

var hundred = decimal.NewFromInt(100)

// ValidateAmerican rejects prices that cannot be American odds
func ValidateAmerican(price int) error {
	if price > -100 && price < 100 {
		return fmt.Errorf("%w: american price %d must be <= -100 or >= 100", models.ErrInvalidConfiguration, price)
	}
	return nil
}

// PayoutDecimal returns the profit per unit staked for an American price
func PayoutDecimal(price int) (decimal.Decimal, error) {
	if err := ValidateAmerican(price); err != nil {
		return decimal.Zero, err
	}
	p := decimal.NewFromInt(int64(price))
	if price > 0 {
		return p.Div(hundred), nil
	}
	return hundred.Div(p.Neg()), nil
}

// Payout returns the profit per unit staked for an American price
func Payout(price int) (float64, error) {
	d, err := PayoutDecimal(price)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// ImpliedProbability returns the break-even win probability of an American price
func ImpliedProbability(price int) (float64, error) {
	if err := ValidateAmerican(price); err != nil {
		return 0, err
	}
	p := decimal.NewFromInt(int64(price))
	if price > 0 {
		return hundred.Div(p.Add(hundred)).InexactFloat64(), nil
	}
	return p.Neg().Div(p.Neg().Add(hundred)).InexactFloat64(), nil
}

// BreakEven returns the win probability needed to break even at a payout
func BreakEven(payout float64) float64 {
	if payout <= 0 {
		return 1
	}
	return 1 / (1 + payout)
}

// AmericanFromPayout converts a per-unit payout back to an American price
func AmericanFromPayout(payout float64) int {
	if payout >= 1 {
		return int(math.Round(payout * 100))
	}
	if payout <= 0 {
		return 0
	}
	return -int(math.Round(100 / payout))
}

// CoverProbability estimates the probability a bet covers given how many
// points of edge it carries and the standard deviation of game margins
// around the model spread.
func CoverProbability(absEdge, sigma float64) float64 {
	if sigma <= 0 {
		return 0.5
	}
	return prob.Normal{Mu: 0, Sigma: sigma}.Cdf(math.Abs(absEdge))
}
