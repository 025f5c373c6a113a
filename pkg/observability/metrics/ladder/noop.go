package laddermetrics

import (
	"context"
	"time"
)

type noop struct{}

// NewNoop returns metrics that record nothing.
func NewNoop() LadderMetrics { return noop{} }

func (noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (noop) RecordOperationFailure(context.Context, string, string)                 {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordPointsTransferred(context.Context, string, int)                   {}
func (noop) RecordMatchesFinalized(context.Context, string, int)                    {}
func (noop) RecordChallengesExpired(context.Context, int)                           {}
func (noop) RecordRankingRecompute(context.Context, int, time.Duration)             {}
