package ladderhandlers

import (
	"context"
	"time"

	ladderevents "github.com/Black-And-White-Club/acerank/pkg/events/ladder"
	"github.com/Black-And-White-Club/acerank/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
)

// HandleRankingsRecomputeRequested rebuilds every ranking cache and announces completion.
func (h *LadderHandlers) HandleRankingsRecomputeRequested(ctx context.Context, payload *ladderevents.RankingsRecomputeRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "LadderHandlers.HandleRankingsRecomputeRequested")
	defer span.End()

	h.logger.InfoContext(ctx, "Ranking recompute requested",
		attr.String("requested_by", payload.RequestedBy),
		attr.String("reason", payload.Reason),
		attr.ExtractCorrelationID(ctx),
	)

	if err := h.service.RecomputeRankings(ctx); err != nil {
		h.logger.ErrorContext(ctx, "Ranking recompute failed",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		return nil, err
	}

	return []handlerwrapper.Result{{
		Topic: ladderevents.RankingsRecomputedV1,
		Payload: ladderevents.RankingsRecomputedPayloadV1{
			RequestedBy: payload.RequestedBy,
			CompletedAt: time.Now().UTC(),
		},
	}}, nil
}
