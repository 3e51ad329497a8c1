package resolvers

import (
	"context"
	"fmt"

	"halaqat/services/fetcher"

	"go.uber.org/zap"
)

// PlanSource reads plan resources from the backend.
type PlanSource interface {
	Get(ctx context.Context, path string) (*fetcher.Response, error)
}

// PlanDetailResolver turns a possibly stale plan detail id into one that
// exists under the plan right now.
type PlanDetailResolver struct {
	Plans  PlanSource
	Logger *zap.Logger
}

func NewPlanDetailResolver(plans PlanSource, logger *zap.Logger) *PlanDetailResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanDetailResolver{Plans: plans, Logger: logger}
}

// Resolve performs exactly one plan read and never fails. An exact match is
// returned as is; an unknown id is replaced by the plan's first detail; if the
// plan cannot be read or has no details the candidate is returned unchanged
// and the booking endpoint decides.
func (r *PlanDetailResolver) Resolve(ctx context.Context, planID, candidate int64) int64 {
	log := r.Logger.With(zap.Int64("planID", planID), zap.Int64("candidateDetailID", candidate))

	resp, err := r.Plans.Get(ctx, fmt.Sprintf("plans/%d", planID))
	if err != nil {
		log.Warn("resolve plan detail: plan fetch failed, keeping candidate", zap.Error(err))
		return candidate
	}

	plan, shape := NormalizePlanPayload(resp.Body)
	if plan == nil {
		log.Warn("resolve plan detail: plan not found in payload, keeping candidate")
		return candidate
	}

	ids := DetailIDs(plan)
	if len(ids) == 0 {
		log.Warn("resolve plan detail: plan has no details, keeping candidate", zap.Stringer("shape", shape))
		return candidate
	}
	for _, id := range ids {
		if id == candidate {
			return candidate
		}
	}

	log.Info("resolve plan detail: candidate is stale, substituting first detail",
		zap.Int64("resolvedDetailID", ids[0]),
		zap.Int("details", len(ids)),
	)
	return ids[0]
}
