package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by status",
	}, []string{"status"})
	GridCandidatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "grid_candidates_total",
		Help:      "Grid candidates evaluated on the training window by eligibility",
	}, []string{"eligible"})
)

// Backtest gauges and histograms
var (
	HoldoutROI = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "holdout_roi",
		Help:      "ROI of the selected configuration on the holdout window",
	})
	HoldoutWinRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "holdout_win_rate",
		Help:      "Win rate of the selected configuration on the holdout window",
	})
	CandidateTrainROI = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "candidate_train_roi",
		Help:      "Training ROI distribution across grid candidates",
		Buckets:   []float64{-0.3, -0.2, -0.1, -0.05, 0, 0.05, 0.1, 0.2, 0.3},
	})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure", "insufficient_sample"
func RecordBacktestRun(status string) {
	BacktestRunsTotal.WithLabelValues(status).Inc()
}

// RecordCandidate records a grid candidate's training outcome.
func RecordCandidate(eligible bool, trainROI float64) {
	label := "false"
	if eligible {
		label = "true"
	}
	GridCandidatesTotal.WithLabelValues(label).Inc()
	CandidateTrainROI.Observe(trainROI)
}

// UpdateHoldout sets the holdout gauges.
func UpdateHoldout(roi, winRate float64) {
	HoldoutROI.Set(roi)
	HoldoutWinRate.Set(winRate)
}
