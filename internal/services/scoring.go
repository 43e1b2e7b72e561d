package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/provenor/evaluation-service/internal/models"
)

// ScoringStore abstracts the reads the aggregator performs per evaluation.
type ScoringStore interface {
	ListEvaluationQuestions(ctx context.Context, evaluationID string) ([]models.EvaluationQuestion, error)
	ListResponsesByEvaluation(ctx context.Context, evaluationID string) ([]models.Response, error)
}

// VendorCompliance is one vendor's weighted score for one evaluation.
type VendorCompliance struct {
	VendorID      string `json:"vendor_id"`
	ScorePct      int    `json:"score_pct"`
	ResponseCount int    `json:"response_count"`
}

// ScoringService aggregates raw responses into per-vendor compliance
// percentages using the evaluation's question weights.
type ScoringService struct {
	store ScoringStore
}

func NewScoringService(store ScoringStore) *ScoringService {
	return &ScoringService{store: store}
}

// ComputeCompliance scores every vendor that answered at least one question
// of the evaluation. An evaluation whose total question weight is zero is not
// scorable and yields an empty result; vendors with zero responses are
// omitted rather than scored zero (pending and failing are different
// conditions).
func (s *ScoringService) ComputeCompliance(ctx context.Context, evaluationID string) ([]VendorCompliance, error) {
	questions, err := s.store.ListEvaluationQuestions(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("load evaluation questions: %w", err)
	}

	totalWeight := 0.0
	for _, q := range questions {
		totalWeight += q.EffectiveWeight()
	}
	if totalWeight == 0 {
		return []VendorCompliance{}, nil
	}

	responses, err := s.store.ListResponsesByEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	type accum struct {
		scoreSum float64
		count    int
	}
	byVendor := map[string]*accum{}
	for _, r := range responses {
		a := byVendor[r.VendorID]
		if a == nil {
			a = &accum{}
			byVendor[r.VendorID] = a
		}
		a.scoreSum += r.Score
		a.count++
	}

	result := make([]VendorCompliance, 0, len(byVendor))
	for vendorID, a := range byVendor {
		result = append(result, VendorCompliance{
			VendorID:      vendorID,
			ScorePct:      int(math.Round(100 * a.scoreSum / totalWeight)),
			ResponseCount: a.count,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VendorID < result[j].VendorID })
	return result, nil
}

// ComputeComplianceForCaller applies role scoping on top of
// ComputeCompliance: admins and callers holding the evaluations:read
// permission see every vendor's score, vendor-affiliated callers see only
// their own vendor's row, and callers with neither are refused.
func (s *ScoringService) ComputeComplianceForCaller(ctx context.Context, caller *CallerIdentity, evaluationID string) ([]VendorCompliance, error) {
	scores, err := s.ComputeCompliance(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if caller.CanReadFleet() {
		return scores, nil
	}
	if caller == nil || caller.VendorID == nil {
		return nil, NewForbiddenError("caller has no vendor affiliation")
	}
	scoped := make([]VendorCompliance, 0, 1)
	for _, vc := range scores {
		if vc.VendorID == *caller.VendorID {
			scoped = append(scoped, vc)
		}
	}
	return scoped, nil
}
