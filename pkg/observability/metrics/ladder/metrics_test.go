package laddermetrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg, "acerank").(*prometheusMetrics)
	ctx := context.Background()

	m.RecordOperationAttempt(ctx, "CreateChallenge", "LadderService")
	m.RecordOperationAttempt(ctx, "CreateChallenge", "LadderService")
	m.RecordOperationFailure(ctx, "CreateChallenge", "LadderService")
	m.RecordPointsTransferred(ctx, "decline_penalty", -10)
	m.RecordMatchesFinalized(ctx, "sweep", 3)
	m.RecordChallengesExpired(ctx, 2)
	m.RecordRankingRecompute(ctx, 17, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("CreateChallenge", "LadderService")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("CreateChallenge", "LadderService")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.pointsTransferred.WithLabelValues("decline_penalty")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.matchesFinalized.WithLabelValues("sweep")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.challengesExpired))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.rankedPlayers))
}

func TestNoopSatisfiesInterface(t *testing.T) {
	var m LadderMetrics = NewNoop()
	m.RecordOperationDuration(context.Background(), "x", "y", time.Second)
}
