package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/spread-edge/internal/models"
)

var testOptions = SummaryOptions{
	EdgeBuckets:     []float64{0, 2, 3, 4, 5, 7},
	MinBucketSample: 2,
	CalibrationBins: 10,
}

func TestSummarizeExcludesPushesFromRates(t *testing.T) {
	bets := []models.Bet{
		testBet(3, models.BetResultWin, 0.91),
		testBet(3, models.BetResultWin, 0.91),
		testBet(3, models.BetResultLoss, -1),
		testBet(3, models.BetResultPush, 0),
	}

	s := Summarize(bets, testOptions)
	assert.Equal(t, 4, s.Bets)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 1, s.Pushes)
	assert.Equal(t, 3, s.Decided())
	assert.InDelta(t, 2.0/3.0, s.WinRate, 1e-9)
	assert.InDelta(t, 0.82, s.Units, 1e-9)
	assert.InDelta(t, 0.82/3, s.ROI, 1e-9)
	assert.InDelta(t, (2*0.16+0.36)/3, s.Brier, 1e-9)
	assert.Equal(t, 3.0, s.AverageEdge)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, testOptions)
	assert.Zero(t, s.Bets)
	assert.Zero(t, s.ROI)
	assert.True(t, s.BucketsMonotonic)
	assert.Len(t, s.Buckets, len(testOptions.EdgeBuckets))
}

func TestSummarizeCLVAndMarketBrier(t *testing.T) {
	priced := testBet(4, models.BetResultWin, 1)
	priced.Price = intPtr(100)
	priced.MarketProbability = 0.5
	priced.CLV = floatPtr(1.5)
	unpriced := testBet(4, models.BetResultLoss, -1)
	unpriced.CLV = floatPtr(-0.5)
	noClose := testBet(4, models.BetResultWin, 0.91)

	s := Summarize([]models.Bet{priced, unpriced, noClose}, testOptions)
	assert.Equal(t, 2, s.CLVSamples)
	assert.InDelta(t, 0.5, s.AverageCLV, 1e-9)
	assert.Equal(t, 1, s.MarketBrierSamples)
	assert.InDelta(t, 0.25, s.MarketBrier, 1e-9)
}

func TestBuckets(t *testing.T) {
	bets := []models.Bet{
		testBet(1.5, models.BetResultLoss, -1),
		testBet(1.9, models.BetResultLoss, -1),
		testBet(2.0, models.BetResultWin, 0.91),
		testBet(2.5, models.BetResultLoss, -1),
		testBet(7.0, models.BetResultWin, 0.91),
		testBet(12, models.BetResultWin, 0.91),
		testBet(-0.5, models.BetResultWin, 0.91),
	}

	s := Summarize(bets, testOptions)
	require.Len(t, s.Buckets, 6)

	assert.Equal(t, "0-2", s.Buckets[0].Label)
	assert.Equal(t, 3, s.Buckets[0].Bets)
	assert.Equal(t, "2-3", s.Buckets[1].Label)
	assert.Equal(t, 2, s.Buckets[1].Bets)
	assert.InDelta(t, 0.5, s.Buckets[1].WinRate, 1e-9)
	assert.Equal(t, "7+", s.Buckets[5].Label)
	assert.True(t, s.Buckets[5].Open)
	assert.Equal(t, 2, s.Buckets[5].Bets)
	assert.True(t, s.Buckets[5].Sufficient)
	assert.False(t, s.Buckets[2].Sufficient)
}

func TestBucketIndex(t *testing.T) {
	bounds := []float64{2, 3, 5}
	assert.Equal(t, -1, bucketIndex(bounds, 1.99))
	assert.Equal(t, 0, bucketIndex(bounds, 2))
	assert.Equal(t, 1, bucketIndex(bounds, 4.99))
	assert.Equal(t, 2, bucketIndex(bounds, 50))
}

func TestBucketsMonotonic(t *testing.T) {
	rising := []Bucket{
		{ROI: -0.1, Sufficient: true},
		{ROI: 0.5, Sufficient: false},
		{ROI: 0.05, Sufficient: true},
		{ROI: 0.2, Sufficient: true},
	}
	assert.True(t, bucketsMonotonic(rising))

	falling := []Bucket{
		{ROI: 0.2, Sufficient: true},
		{ROI: 0.1, Sufficient: true},
	}
	assert.False(t, bucketsMonotonic(falling))
}

func TestCalibration(t *testing.T) {
	low := testBet(2, models.BetResultLoss, -1)
	low.CoverProbability = 0.52
	high := testBet(6, models.BetResultWin, 0.91)
	high.CoverProbability = 0.68
	high2 := testBet(6, models.BetResultWin, 0.91)
	high2.CoverProbability = 0.62
	push := testBet(6, models.BetResultPush, 0)

	bins := buildCalibration([]models.Bet{low, high, high2, push}, 10)
	require.Len(t, bins, 2)
	assert.Equal(t, 1, bins[0].Count)
	assert.InDelta(t, 0.5, bins[0].Lower, 1e-9)
	assert.Zero(t, bins[0].Observed)
	assert.Equal(t, 2, bins[1].Count)
	assert.InDelta(t, 0.65, bins[1].Predicted, 1e-9)
	assert.Equal(t, 1.0, bins[1].Observed)

	assert.Nil(t, buildCalibration([]models.Bet{low}, 0))
}
