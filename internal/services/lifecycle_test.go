package services

import (
	"context"
	"testing"

	"github.com/provenor/evaluation-service/internal/models"
)

type stubLifecycleStore struct {
	recs    map[string]*models.Recommendation
	vendors map[string]string // recommendationID -> vendorID
}

func (s *stubLifecycleStore) GetRecommendation(ctx context.Context, id string) (*models.Recommendation, error) {
	if r, ok := s.recs[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, nil
}

func (s *stubLifecycleStore) GetRecommendationVendor(ctx context.Context, id string) (string, error) {
	return s.vendors[id], nil
}

func (s *stubLifecycleStore) UpdateRecommendationStatus(ctx context.Context, rec models.Recommendation) error {
	copy := rec
	s.recs[rec.ID] = &copy
	return nil
}

func lifecycleFixture() (*LifecycleService, *stubLifecycleStore) {
	store := &stubLifecycleStore{
		recs: map[string]*models.Recommendation{
			"rec1": {ID: "rec1", ResponseID: "r1", Status: models.RecommendationPending},
		},
		vendors: map[string]string{"rec1": "vendorA"},
	}
	identity := NewIdentityService(&stubIdentityStore{
		users: map[string]*models.User{
			"admin":     {ID: "admin", RoleID: "r-admin", Role: models.RoleAdmin},
			"supplierA": {ID: "supplierA", RoleID: "r-supplier", Role: models.RoleSupplier, VendorID: strptr("vendorA")},
			"supplierB": {ID: "supplierB", RoleID: "r-supplier", Role: models.RoleSupplier, VendorID: strptr("vendorB")},
		},
	})
	return NewLifecycleService(store, identity), store
}

func mustSetStatus(t *testing.T, svc *LifecycleService, caller, id string, status models.RecommendationStatus) *models.Recommendation {
	t.Helper()
	rec, err := svc.SetStatus(context.Background(), caller, id, status)
	if err != nil {
		t.Fatalf("SetStatus(%s -> %s) error: %v", id, status, err)
	}
	return rec
}

func TestSetStatusHappyPath(t *testing.T) {
	svc, _ := lifecycleFixture()
	rec := mustSetStatus(t, svc, "supplierA", "rec1", models.RecommendationInProgress)
	if rec.Status != models.RecommendationInProgress {
		t.Fatalf("unexpected status %s", rec.Status)
	}
	if rec.CompletedAt != nil {
		t.Fatal("completed_at must stay empty before implementation")
	}
}

func TestSetStatusImplementedStampsCompletedAt(t *testing.T) {
	svc, _ := lifecycleFixture()
	mustSetStatus(t, svc, "supplierA", "rec1", models.RecommendationInProgress)
	rec := mustSetStatus(t, svc, "supplierA", "rec1", models.RecommendationImplemented)
	if rec.CompletedAt == nil {
		t.Fatal("entering implemented must set completed_at")
	}
	reopened := mustSetStatus(t, svc, "admin", "rec1", models.RecommendationPending)
	if reopened.CompletedAt != nil {
		t.Fatal("leaving implemented must clear completed_at")
	}
}

func TestSetStatusRevertToPending(t *testing.T) {
	svc, _ := lifecycleFixture()
	mustSetStatus(t, svc, "supplierA", "rec1", models.RecommendationInProgress)
	rec := mustSetStatus(t, svc, "supplierA", "rec1", models.RecommendationPending)
	if rec.Status != models.RecommendationPending {
		t.Fatalf("in_progress -> pending must be allowed, got %s", rec.Status)
	}
}

func TestSetStatusRejectsInvalidTransition(t *testing.T) {
	svc, _ := lifecycleFixture()
	_, err := svc.SetStatus(context.Background(), "supplierA", "rec1", models.RecommendationImplemented)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("pending -> implemented must be rejected, got %v", err)
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := lifecycleFixture()
	_, err := svc.SetStatus(context.Background(), "supplierA", "rec1", models.RecommendationStatus("done"))
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestSetStatusUnknownRecommendation(t *testing.T) {
	svc, _ := lifecycleFixture()
	_, err := svc.SetStatus(context.Background(), "admin", "nope", models.RecommendationInProgress)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestSetStatusForbiddenForOtherVendor(t *testing.T) {
	svc, _ := lifecycleFixture()
	_, err := svc.SetStatus(context.Background(), "supplierB", "rec1", models.RecommendationInProgress)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorForbidden {
		t.Fatalf("vendor B must not touch vendor A's recommendation, got %v", err)
	}
}

func TestSetStatusReopenRequiresAdmin(t *testing.T) {
	svc, _ := lifecycleFixture()
	mustSetStatus(t, svc, "supplierA", "rec1", models.RecommendationInProgress)
	mustSetStatus(t, svc, "supplierA", "rec1", models.RecommendationRejected)

	_, err := svc.SetStatus(context.Background(), "supplierA", "rec1", models.RecommendationPending)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorForbidden {
		t.Fatalf("owning vendor must not reopen a terminal status, got %v", err)
	}

	rec := mustSetStatus(t, svc, "admin", "rec1", models.RecommendationPending)
	if rec.Status != models.RecommendationPending {
		t.Fatalf("admin reopen failed, status %s", rec.Status)
	}
}

func TestSetStatusUnauthenticated(t *testing.T) {
	svc, _ := lifecycleFixture()
	_, err := svc.SetStatus(context.Background(), "", "rec1", models.RecommendationInProgress)
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}
