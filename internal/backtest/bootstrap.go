package backtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/spread-edge/internal/models"
)

// bootstrapChunk is the number of resamples drawn from one seeded source.
// Chunk boundaries are fixed so results do not depend on the worker count.
const bootstrapChunk = 250

// BootstrapConfig configures bootstrap resampling
type BootstrapConfig struct {
	Iterations int     `json:"iterations" yaml:"iterations"`
	Seed       int64   `json:"seed" yaml:"seed"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Workers    int     `json:"workers,omitempty" yaml:"workers"`
}

// Validate validates bootstrap settings
func (c BootstrapConfig) Validate() error {
	if c.Iterations < 0 {
		return invalid("bootstrap iterations cannot be negative")
	}
	if c.Iterations > 0 && (c.Confidence <= 0 || c.Confidence >= 1) {
		return invalid("bootstrap confidence must be between 0 and 1")
	}
	if c.Workers < 0 {
		return invalid("bootstrap workers cannot be negative")
	}
	return nil
}

// Interval is a point estimate with percentile bounds
type Interval struct {
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// Excludes reports whether v lies outside the interval
func (i Interval) Excludes(v float64) bool {
	return v < i.Lower || v > i.Upper
}

// BootstrapResult holds percentile confidence intervals
type BootstrapResult struct {
	Iterations int      `json:"iterations"`
	Confidence float64  `json:"confidence"`
	Seed       int64    `json:"seed"`
	Bets       int      `json:"bets"`
	WinRate    Interval `json:"win_rate"`
	ROI        Interval `json:"roi"`
	CLV        Interval `json:"clv"`
}

// RunBootstrap resamples bets with replacement and reports percentile intervals
// for win rate, ROI and average CLV.
func RunBootstrap(ctx context.Context, bets []models.Bet, cfg BootstrapConfig) (BootstrapResult, error) {
	if err := cfg.Validate(); err != nil {
		return BootstrapResult{}, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	point := resampleStats(bets, nil)
	result := BootstrapResult{
		Iterations: cfg.Iterations,
		Confidence: cfg.Confidence,
		Seed:       seed,
		Bets:       len(bets),
		WinRate:    Interval{Estimate: point.winRate, Lower: point.winRate, Upper: point.winRate},
		ROI:        Interval{Estimate: point.roi, Lower: point.roi, Upper: point.roi},
		CLV:        Interval{Estimate: point.clv, Lower: point.clv, Upper: point.clv},
	}
	if len(bets) == 0 || cfg.Iterations == 0 {
		return result, nil
	}

	n := cfg.Iterations
	winRates := make([]float64, n)
	rois := make([]float64, n)
	clvs := make([]float64, n)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for chunk := 0; chunk*bootstrapChunk < n; chunk++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seed + int64(chunk)))
			idx := make([]int, len(bets))
			end := min((chunk+1)*bootstrapChunk, n)
			for it := chunk * bootstrapChunk; it < end; it++ {
				for k := range idx {
					idx[k] = rng.Intn(len(bets))
				}
				st := resampleStats(bets, idx)
				winRates[it] = st.winRate
				rois[it] = st.roi
				clvs[it] = st.clv
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BootstrapResult{}, fmt.Errorf("bootstrap: %w", err)
	}

	tail := (1 - cfg.Confidence) / 2
	result.WinRate.Lower, result.WinRate.Upper = percentile(winRates, tail), percentile(winRates, 1-tail)
	result.ROI.Lower, result.ROI.Upper = percentile(rois, tail), percentile(rois, 1-tail)
	clvs = dropNaN(clvs)
	if len(clvs) > 0 {
		result.CLV.Lower, result.CLV.Upper = percentile(clvs, tail), percentile(clvs, 1-tail)
	}
	return result, nil
}

type sampleStats struct {
	winRate float64
	roi     float64
	clv     float64
}

// resampleStats computes statistics over bets[idx], or over all bets when idx is nil.
// CLV is NaN when the sample has no closing lines.
func resampleStats(bets []models.Bet, idx []int) sampleStats {
	var wins, losses, clvN int
	var units, clvSum float64
	count := len(bets)
	if idx != nil {
		count = len(idx)
	}
	for i := 0; i < count; i++ {
		b := &bets[i]
		if idx != nil {
			b = &bets[idx[i]]
		}
		switch b.Result {
		case models.BetResultWin:
			wins++
		case models.BetResultLoss:
			losses++
		}
		units += b.Profit
		if b.CLV != nil {
			clvSum += *b.CLV
			clvN++
		}
	}
	st := sampleStats{
		winRate: calculateWinRate(wins, wins+losses),
		roi:     ratio(units, wins+losses),
		clv:     math.NaN(),
	}
	if clvN > 0 {
		st.clv = clvSum / float64(clvN)
	} else if idx == nil {
		st.clv = 0
	}
	return st
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	valuesCopy := append([]float64{}, values...)
	sort.Float64s(valuesCopy)
	idx := int(math.Floor(p * float64(len(valuesCopy)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(valuesCopy) {
		idx = len(valuesCopy) - 1
	}
	return valuesCopy[idx]
}

func dropNaN(values []float64) []float64 {
	out := values[:0]
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
