package backtest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/yourusername/spread-edge/internal/models"
)

// SummaryOptions controls bucket and calibration tables
type SummaryOptions struct {
	EdgeBuckets     []float64
	MinBucketSample int
	CalibrationBins int
}

// Bucket aggregates bets whose selection edge falls in [Lower, Upper).
// The last bucket is open-ended.
type Bucket struct {
	Label      string  `json:"label"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper,omitempty"`
	Open       bool    `json:"open,omitempty"`
	Bets       int     `json:"bets"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Pushes     int     `json:"pushes"`
	WinRate    float64 `json:"win_rate"`
	Units      float64 `json:"units"`
	ROI        float64 `json:"roi"`
	Sufficient bool    `json:"sufficient"`
}

// CalibrationBin compares predicted cover probability with the observed rate
type CalibrationBin struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Count     int     `json:"count"`
	Predicted float64 `json:"predicted"`
	Observed  float64 `json:"observed"`
}

// Summary represents performance metrics over a bet set
type Summary struct {
	Bets               int              `json:"bets"`
	Wins               int              `json:"wins"`
	Losses             int              `json:"losses"`
	Pushes             int              `json:"pushes"`
	WinRate            float64          `json:"win_rate"`
	Units              float64          `json:"units"`
	ROI                float64          `json:"roi"`
	AverageCLV         float64          `json:"average_clv"`
	CLVSamples         int              `json:"clv_samples"`
	Brier              float64          `json:"brier"`
	MarketBrier        float64          `json:"market_brier"`
	MarketBrierSamples int              `json:"market_brier_samples"`
	MaxDrawdown        float64          `json:"max_drawdown"`
	Volatility         float64          `json:"volatility"`
	AverageEdge        float64          `json:"average_edge"`
	Buckets            []Bucket         `json:"buckets"`
	BucketsMonotonic   bool             `json:"buckets_monotonic"`
	Calibration        []CalibrationBin `json:"calibration,omitempty"`
}

// Decided returns wins plus losses
func (s Summary) Decided() int {
	return s.Wins + s.Losses
}

// ToJSON exports the summary to JSON
func (s Summary) ToJSON() string {
	data, _ := json.Marshal(s)
	return string(data)
}

// Summarize computes metrics over bets. Pushes count toward Bets but are left
// out of every win-rate, ROI and Brier denominator.
func Summarize(bets []models.Bet, opts SummaryOptions) Summary {
	s := Summary{Bets: len(bets)}
	if len(bets) == 0 {
		s.Buckets = buildBuckets(bets, opts)
		s.BucketsMonotonic = true
		return s
	}

	edgeSum := 0.0
	clvSum := 0.0
	brierSum := 0.0
	marketSum := 0.0
	for _, b := range bets {
		edgeSum += b.SelectionEdge()
		s.Units += b.Profit
		if b.CLV != nil {
			clvSum += *b.CLV
			s.CLVSamples++
		}
		switch b.Result {
		case models.BetResultWin:
			s.Wins++
		case models.BetResultLoss:
			s.Losses++
		case models.BetResultPush:
			s.Pushes++
		}
		if !b.Decided() {
			continue
		}
		brierSum += squared(b.CoverProbability - b.Outcome())
		if b.Price != nil {
			marketSum += squared(b.MarketProbability - b.Outcome())
			s.MarketBrierSamples++
		}
	}

	decided := s.Decided()
	s.WinRate = calculateWinRate(s.Wins, decided)
	s.ROI = ratio(s.Units, decided)
	s.Brier = ratio(brierSum, decided)
	s.MarketBrier = ratio(marketSum, s.MarketBrierSamples)
	s.AverageCLV = ratio(clvSum, s.CLVSamples)
	s.AverageEdge = edgeSum / float64(len(bets))

	curve := BuildCurve(bets)
	s.MaxDrawdown = curve.MaxDrawdown()
	s.Volatility = curve.GetVolatility()

	s.Buckets = buildBuckets(bets, opts)
	s.BucketsMonotonic = bucketsMonotonic(s.Buckets)
	s.Calibration = buildCalibration(bets, opts.CalibrationBins)
	return s
}

func buildBuckets(bets []models.Bet, opts SummaryOptions) []Bucket {
	bounds := opts.EdgeBuckets
	buckets := make([]Bucket, len(bounds))
	for i, lower := range bounds {
		buckets[i].Lower = lower
		if i+1 < len(bounds) {
			buckets[i].Upper = bounds[i+1]
			buckets[i].Label = fmt.Sprintf("%g-%g", lower, bounds[i+1])
		} else {
			buckets[i].Open = true
			buckets[i].Label = fmt.Sprintf("%g+", lower)
		}
	}

	for _, b := range bets {
		i := bucketIndex(bounds, b.SelectionEdge())
		if i < 0 {
			continue
		}
		bk := &buckets[i]
		bk.Bets++
		bk.Units += b.Profit
		switch b.Result {
		case models.BetResultWin:
			bk.Wins++
		case models.BetResultLoss:
			bk.Losses++
		case models.BetResultPush:
			bk.Pushes++
		}
	}

	for i := range buckets {
		bk := &buckets[i]
		decided := bk.Wins + bk.Losses
		bk.WinRate = calculateWinRate(bk.Wins, decided)
		bk.ROI = ratio(bk.Units, decided)
		bk.Sufficient = decided > 0 && decided >= opts.MinBucketSample
	}
	return buckets
}

// bucketIndex returns the bucket for value, or -1 when below the first bound
func bucketIndex(bounds []float64, value float64) int {
	idx := -1
	for i, lower := range bounds {
		if value >= lower {
			idx = i
		}
	}
	return idx
}

// bucketsMonotonic reports whether ROI never decreases across sufficient buckets
func bucketsMonotonic(buckets []Bucket) bool {
	prev := math.Inf(-1)
	for _, b := range buckets {
		if !b.Sufficient {
			continue
		}
		if b.ROI < prev {
			return false
		}
		prev = b.ROI
	}
	return true
}

func buildCalibration(bets []models.Bet, bins int) []CalibrationBin {
	if bins <= 0 {
		return nil
	}
	width := 1.0 / float64(bins)
	out := make([]CalibrationBin, bins)
	for i := range out {
		out[i].Lower = float64(i) * width
		out[i].Upper = float64(i+1) * width
	}
	for _, b := range bets {
		if !b.Decided() {
			continue
		}
		i := int(b.CoverProbability / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
		out[i].Predicted += b.CoverProbability
		out[i].Observed += b.Outcome()
	}

	filled := out[:0]
	for _, bin := range out {
		if bin.Count == 0 {
			continue
		}
		bin.Predicted /= float64(bin.Count)
		bin.Observed /= float64(bin.Count)
		filled = append(filled, bin)
	}
	return filled
}

func calculateWinRate(wins, decided int) float64 {
	if decided == 0 {
		return 0
	}
	return float64(wins) / float64(decided)
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func squared(v float64) float64 {
	return v * v
}
