package services

import (
	"context"
	"fmt"
	"time"

	"github.com/provenor/evaluation-service/internal/models"
)

// LifecycleStore abstracts recommendation reads/writes plus the ownership
// chain lookup (recommendation -> response -> assignment -> vendor).
type LifecycleStore interface {
	GetRecommendation(ctx context.Context, recommendationID string) (*models.Recommendation, error)
	GetRecommendationVendor(ctx context.Context, recommendationID string) (string, error)
	UpdateRecommendationStatus(ctx context.Context, rec models.Recommendation) error
}

// transitions is the explicit, total state machine: any edge not listed is
// rejected. Reopening a terminal status is listed here but additionally
// restricted to administrators in SetStatus.
var transitions = map[models.RecommendationStatus][]models.RecommendationStatus{
	models.RecommendationPending:     {models.RecommendationInProgress},
	models.RecommendationInProgress:  {models.RecommendationImplemented, models.RecommendationRejected, models.RecommendationPending},
	models.RecommendationImplemented: {models.RecommendationPending},
	models.RecommendationRejected:    {models.RecommendationPending},
}

func transitionAllowed(from, to models.RecommendationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func terminal(s models.RecommendationStatus) bool {
	return s == models.RecommendationImplemented || s == models.RecommendationRejected
}

// LifecycleService mutates recommendation status under caller-scoped
// authorization.
type LifecycleService struct {
	store    LifecycleStore
	identity *IdentityService
	now      func() time.Time
}

func NewLifecycleService(store LifecycleStore, identity *IdentityService) *LifecycleService {
	return &LifecycleService{
		store:    store,
		identity: identity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetStatus transitions a recommendation to newStatus. The caller must be an
// administrator or the supplier whose vendor owns the source response.
// Entering implemented stamps completed_at; leaving it clears the stamp.
func (s *LifecycleService) SetStatus(ctx context.Context, callerID, recommendationID string, newStatus models.RecommendationStatus) (*models.Recommendation, error) {
	if !newStatus.Valid() {
		return nil, NewInvalidError(fmt.Sprintf("invalid status %q", newStatus))
	}

	identity, err := s.identity.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}

	rec, err := s.store.GetRecommendation(ctx, recommendationID)
	if err != nil {
		return nil, fmt.Errorf("load recommendation %s: %w", recommendationID, err)
	}
	if rec == nil {
		return nil, NewNotFoundError("recommendation not found")
	}

	if !identity.IsAdmin {
		vendorID, err := s.store.GetRecommendationVendor(ctx, recommendationID)
		if err != nil {
			return nil, fmt.Errorf("resolve recommendation vendor: %w", err)
		}
		if vendorID == "" {
			return nil, NewDataIntegrityError("recommendation has no vendor chain")
		}
		if identity.VendorID == nil || *identity.VendorID != vendorID {
			return nil, NewForbiddenError("recommendation belongs to another vendor")
		}
	}

	if !transitionAllowed(rec.Status, newStatus) {
		return nil, NewInvalidError(fmt.Sprintf("cannot transition %s to %s", rec.Status, newStatus))
	}
	if terminal(rec.Status) && !identity.IsAdmin {
		return nil, NewForbiddenError("only an administrator may reopen a resolved recommendation")
	}

	now := s.now()
	rec.Status = newStatus
	rec.UpdatedAt = now
	if newStatus == models.RecommendationImplemented {
		rec.CompletedAt = &now
	} else {
		rec.CompletedAt = nil
	}

	if err := s.store.UpdateRecommendationStatus(ctx, *rec); err != nil {
		return nil, fmt.Errorf("persist status change: %w", err)
	}
	return rec, nil
}
