package laddermetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LadderMetrics records ladder engine activity.
type LadderMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	RecordPointsTransferred(ctx context.Context, reason string, points int)
	RecordMatchesFinalized(ctx context.Context, trigger string, count int)
	RecordChallengesExpired(ctx context.Context, count int)
	RecordRankingRecompute(ctx context.Context, players int, duration time.Duration)
}

type prometheusMetrics struct {
	attempts          *prometheus.CounterVec
	successes         *prometheus.CounterVec
	failures          *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	pointsTransferred *prometheus.CounterVec
	matchesFinalized  *prometheus.CounterVec
	challengesExpired prometheus.Counter
	rankedPlayers     prometheus.Gauge
	recomputeDuration prometheus.Histogram
}

// NewPrometheus registers the ladder collectors on reg.
func NewPrometheus(reg prometheus.Registerer, namespace string) LadderMetrics {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "operation_success_total",
			Help:      "Service operations that completed without infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "operation_failures_total",
			Help:      "Service operations that returned an infrastructure error or panicked.",
		}, []string{"operation", "service"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		pointsTransferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "points_transferred_total",
			Help:      "Absolute points moved between players.",
		}, []string{"reason"}),
		matchesFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "matches_finalized_total",
			Help:      "Matches moved to validated.",
		}, []string{"trigger"}),
		challengesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "challenges_expired_total",
			Help:      "Pending challenges expired by the sweep.",
		}),
		rankedPlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "ranked_players",
			Help:      "Active players in the overall ranking after the last recompute.",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ladder",
			Name:      "ranking_recompute_seconds",
			Help:      "Time spent recomputing all ranking categories.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.attempts, m.successes, m.failures, m.duration,
		m.pointsTransferred, m.matchesFinalized, m.challengesExpired,
		m.rankedPlayers, m.recomputeDuration,
	)
	return m
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordPointsTransferred(_ context.Context, reason string, points int) {
	if points < 0 {
		points = -points
	}
	m.pointsTransferred.WithLabelValues(reason).Add(float64(points))
}

func (m *prometheusMetrics) RecordMatchesFinalized(_ context.Context, trigger string, count int) {
	m.matchesFinalized.WithLabelValues(trigger).Add(float64(count))
}

func (m *prometheusMetrics) RecordChallengesExpired(_ context.Context, count int) {
	m.challengesExpired.Add(float64(count))
}

func (m *prometheusMetrics) RecordRankingRecompute(_ context.Context, players int, duration time.Duration) {
	m.rankedPlayers.Set(float64(players))
	m.recomputeDuration.Observe(duration.Seconds())
}
