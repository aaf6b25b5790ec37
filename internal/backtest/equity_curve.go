package backtest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/yourusername/spread-edge/internal/models"
)

// UnitsPoint is the cumulative result after one graded bet
type UnitsPoint struct {
	Index    int     `json:"index"`
	GameID   string  `json:"game_id"`
	Season   int     `json:"season"`
	Week     int     `json:"week"`
	Profit   float64 `json:"profit"`
	Units    float64 `json:"units"`
	Drawdown float64 `json:"drawdown"`
}

// UnitsCurve is the running units total over a bet sequence, starting from zero
type UnitsCurve []UnitsPoint

// BuildCurve builds a curve from bets in order
func BuildCurve(bets []models.Bet) UnitsCurve {
	curve := make(UnitsCurve, 0, len(bets))
	for _, b := range bets {
		curve = curve.Append(b)
	}
	return curve
}

// Append returns the curve extended by one bet
func (c UnitsCurve) Append(bet models.Bet) UnitsCurve {
	units, peak := 0.0, 0.0
	if n := len(c); n > 0 {
		units = c[n-1].Units
		peak = units + c[n-1].Drawdown
	}
	units += bet.Profit
	peak = math.Max(peak, units)
	return append(c, UnitsPoint{
		Index:    len(c),
		GameID:   bet.GameID,
		Season:   bet.Season,
		Week:     bet.Week,
		Profit:   bet.Profit,
		Units:    units,
		Drawdown: peak - units,
	})
}

// Final returns the ending units total
func (c UnitsCurve) Final() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Units
}

// MaxDrawdown returns the largest peak-to-trough fall in units
func (c UnitsCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	for _, p := range c {
		if p.Drawdown > maxDD {
			maxDD = p.Drawdown
		}
	}
	return maxDD
}

// GetVolatility calculates the standard deviation of per-bet profit
func (c UnitsCurve) GetVolatility() float64 {
	if len(c) == 0 {
		return 0
	}
	mean := 0.0
	for _, p := range c {
		mean += p.Profit
	}
	mean /= float64(len(c))

	variance := 0.0
	for _, p := range c {
		diff := p.Profit - mean
		variance += diff * diff
	}
	variance /= float64(len(c))
	return math.Sqrt(variance)
}

// ToCSV exports the curve to a CSV string
func (c UnitsCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("index,game_id,season,week,profit,units,drawdown\n")
	for _, p := range c {
		buf.WriteString(strconv.Itoa(p.Index))
		buf.WriteString(",")
		buf.WriteString(p.GameID)
		buf.WriteString(",")
		buf.WriteString(strconv.Itoa(p.Season))
		buf.WriteString(",")
		buf.WriteString(strconv.Itoa(p.Week))
		buf.WriteString(",")
		buf.WriteString(formatFloat(p.Profit))
		buf.WriteString(",")
		buf.WriteString(formatFloat(p.Units))
		buf.WriteString(",")
		buf.WriteString(formatFloat(p.Drawdown))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the curve to a JSON string
func (c UnitsCurve) ToJSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
