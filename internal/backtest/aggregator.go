package backtest

import (
	"fmt"
	"math"
)

// Recommendation values
const (
	RecommendAccept      = "ACCEPT"
	RecommendReject      = "REJECT"
	RecommendNeedsReview = "NEEDS_REVIEW"
)

// RecommendationInput gathers the evidence behind a recommendation
type RecommendationInput struct {
	Score       float64
	TrainROI    float64
	Holdout     Summary
	Bootstrap   BootstrapResult
	BreakEven   float64
	WalkForward *WalkForwardResult
}

// CalculateCompositeScore weights holdout metrics into a 0..1 score
func CalculateCompositeScore(s Summary) float64 {
	roiScore := normalize(s.ROI, -0.2, 0.2)
	winRateScore := normalize(s.WinRate, 0.45, 0.65)
	clvScore := normalize(s.AverageCLV, -1, 1)
	brierScore := 1.0 - normalize(s.Brier, 0.2, 0.3)
	monotonic := 0.0
	if s.BucketsMonotonic {
		monotonic = 1
	}

	weighted := 0.0
	weighted += roiScore * 0.35
	weighted += winRateScore * 0.25
	weighted += clvScore * 0.20
	weighted += brierScore * 0.10
	weighted += monotonic * 0.10
	return weighted
}

// GenerateRecommendation determines if the selected configuration is acceptable
func GenerateRecommendation(in RecommendationInput) (string, []string) {
	var notes []string
	ciClear := in.Bootstrap.Iterations > 0 && in.Bootstrap.WinRate.Lower > in.BreakEven
	if !ciClear {
		notes = append(notes, fmt.Sprintf("holdout win-rate interval does not clear break-even %.4f", in.BreakEven))
	}
	if in.Holdout.ROI < 0 {
		notes = append(notes, "holdout ROI is negative")
	}
	if !in.Holdout.BucketsMonotonic {
		notes = append(notes, "edge buckets are not monotonic in ROI")
	}
	if in.TrainROI > 0 && in.Holdout.ROI < in.TrainROI/2 {
		notes = append(notes, "holdout ROI is less than half of training ROI")
	}

	consistency := 1.0
	if in.WalkForward != nil {
		consistency = in.WalkForward.ConsistencyScore
		notes = append(notes, fmt.Sprintf("walk-forward consistency %.2f across %d windows", consistency, len(scoredWindows(in.WalkForward.Windows))))
	}

	if in.Score > 0.6 && in.Holdout.ROI > 0 && ciClear && consistency > 0.6 {
		return RecommendAccept, notes
	}
	if in.Score < 0.4 || in.Holdout.ROI < 0 || consistency < 0.4 {
		return RecommendReject, notes
	}
	return RecommendNeedsReview, notes
}

func normalize(value, min, max float64) float64 {
	if max-min == 0 {
		return 0
	}
	v := (value - min) / (max - min)
	return math.Max(0, math.Min(1, v))
}
