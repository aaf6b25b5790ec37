// Package metrics provides the Prometheus registry for rating and backtest runs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spread_edge"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	GamesReplayedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_replayed_total",
		Help:      "Total number of completed games applied to ratings",
	})
	EdgesEvaluatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edges_evaluated_total",
		Help:      "Total number of edge evaluations by qualification reason",
	}, []string{"reason"})
	GameExclusionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "game_exclusions_total",
		Help:      "Games excluded from evaluation by phase and reason",
	}, []string{"phase", "reason"})
	ProjectionCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projection_cache_total",
		Help:      "Projection cache lookups by result",
	}, []string{"result"})
)

// Gauge metrics
var (
	TeamsRated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "teams_rated",
		Help:      "Number of teams currently carried by the rating system",
	})
	QualifiedEdges = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "qualified_edges",
		Help:      "Number of qualifying edges in the latest slate",
	})
)

// Histogram metrics
var (
	ReplayDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "replay_duration_seconds",
		Help:      "Duration of a full chronological replay in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(GamesReplayedTotal)
		registry.MustRegister(EdgesEvaluatedTotal)
		registry.MustRegister(GameExclusionsTotal)
		registry.MustRegister(ProjectionCacheTotal)

		registry.MustRegister(TeamsRated)
		registry.MustRegister(QualifiedEdges)

		registry.MustRegister(ReplayDuration)
		registry.MustRegister(BacktestDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(GridCandidatesTotal)
		registry.MustRegister(HoldoutROI)
		registry.MustRegister(HoldoutWinRate)
		registry.MustRegister(CandidateTrainROI)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordGamesReplayed adds applied games to the replay counter.
func RecordGamesReplayed(n int) {
	GamesReplayedTotal.Add(float64(n))
}

// RecordEdgeEvaluated records one qualification verdict.
func RecordEdgeEvaluated(reason string) {
	EdgesEvaluatedTotal.WithLabelValues(reason).Inc()
}

// RecordExclusions adds per-reason exclusion counts for a phase.
func RecordExclusions(phase string, counts map[string]int) {
	for reason, n := range counts {
		GameExclusionsTotal.WithLabelValues(phase, reason).Add(float64(n))
	}
}

// RecordCacheLookup records a projection cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ProjectionCacheTotal.WithLabelValues(result).Inc()
}

// UpdateTeamsRated updates the rated teams gauge.
func UpdateTeamsRated(count int) {
	TeamsRated.Set(float64(count))
}

// UpdateQualifiedEdges updates the qualified edges gauge.
func UpdateQualifiedEdges(count int) {
	QualifiedEdges.Set(float64(count))
}

// RecordReplayDuration records replay duration.
func RecordReplayDuration(durationSeconds float64) {
	ReplayDuration.Observe(durationSeconds)
}

// RecordBacktestDuration records backtest duration.
func RecordBacktestDuration(durationSeconds float64) {
	BacktestDuration.Observe(durationSeconds)
}
