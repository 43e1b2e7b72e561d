package services

import (
	"context"
	"errors"
	"testing"

	"github.com/provenor/evaluation-service/internal/models"
)

type stubDerivationStore struct {
	assignment *models.VendorAssignment
	responses  []models.ResponseDetail
	existing   map[string]bool // responseID -> already has a recommendation
	insertErr  map[string]error
	inserted   []models.Recommendation
}

func (s *stubDerivationStore) GetAssignment(ctx context.Context, assignmentID string) (*models.VendorAssignment, error) {
	if s.assignment != nil && s.assignment.ID == assignmentID {
		return s.assignment, nil
	}
	return nil, nil
}

func (s *stubDerivationStore) ListResponsesByAssignment(ctx context.Context, assignmentID string) ([]models.ResponseDetail, error) {
	return s.responses, nil
}

func (s *stubDerivationStore) InsertRecommendationIfAbsent(ctx context.Context, rec models.Recommendation) (bool, error) {
	if err := s.insertErr[rec.ResponseID]; err != nil {
		return false, err
	}
	if s.existing == nil {
		s.existing = map[string]bool{}
	}
	if s.existing[rec.ResponseID] {
		return false, nil
	}
	s.existing[rec.ResponseID] = true
	s.inserted = append(s.inserted, rec)
	return true, nil
}

func detail(id, answer string, recText *string, options []byte) models.ResponseDetail {
	return models.ResponseDetail{
		Response: models.Response{
			ID:           id,
			QuestionID:   "q-" + id,
			AssignmentID: "a1",
			Answer:       answer,
		},
		QuestionText:           "question for " + id,
		QuestionCategory:       "quality",
		QuestionRecommendation: recText,
		QuestionOptions:        options,
	}
}

func TestDeriveCreatesOnePerUnsatisfactoryResponse(t *testing.T) {
	rec := "document the control"
	store := &stubDerivationStore{
		assignment: &models.VendorAssignment{ID: "a1", EvaluationID: "e1", VendorID: "v1"},
		responses: []models.ResponseDetail{
			detail("r1", "No", &rec, nil),
			detail("r2", "Yes", &rec, nil),
			detail("r3", "N/A", &rec, nil),
		},
	}
	svc := NewDerivationService(store, nil)
	report, err := svc.DeriveRecommendations(context.Background(), "a1")
	if err != nil {
		t.Fatalf("DeriveRecommendations error: %v", err)
	}
	if len(report.Created) != 2 {
		t.Fatalf("expected 2 created, got %d", len(report.Created))
	}
	for _, r := range report.Created {
		if r.Text != rec {
			t.Fatalf("unexpected remediation text %q", r.Text)
		}
		if r.Status != models.RecommendationPending {
			t.Fatalf("new recommendations must be pending, got %s", r.Status)
		}
		if r.Priority != DefaultPriority {
			t.Fatalf("expected default priority %d, got %d", DefaultPriority, r.Priority)
		}
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	rec := "rotate credentials"
	store := &stubDerivationStore{
		assignment: &models.VendorAssignment{ID: "a1"},
		responses: []models.ResponseDetail{
			detail("r1", "No", &rec, nil),
			detail("r2", "no", &rec, nil),
			detail("r3", "N/A", &rec, nil),
		},
	}
	svc := NewDerivationService(store, nil)
	first, err := svc.DeriveRecommendations(context.Background(), "a1")
	if err != nil {
		t.Fatalf("first pass error: %v", err)
	}
	second, err := svc.DeriveRecommendations(context.Background(), "a1")
	if err != nil {
		t.Fatalf("second pass error: %v", err)
	}
	if len(first.Created) != 3 {
		t.Fatalf("expected 3 created on first pass, got %d", len(first.Created))
	}
	if len(second.Created) != 0 || second.Existing != 3 {
		t.Fatalf("second pass must create nothing, got created=%d existing=%d", len(second.Created), second.Existing)
	}
	if len(store.inserted) != 3 {
		t.Fatalf("store must hold exactly 3 rows, got %d", len(store.inserted))
	}
}

func TestDeriveLegacyOptionsFallback(t *testing.T) {
	store := &stubDerivationStore{
		assignment: &models.VendorAssignment{ID: "a1"},
		responses: []models.ResponseDetail{
			detail("r1", "No", nil, []byte(`{"choices":["Yes","No"],"recommendationText":"install extinguishers"}`)),
		},
	}
	svc := NewDerivationService(store, nil)
	report, err := svc.DeriveRecommendations(context.Background(), "a1")
	if err != nil {
		t.Fatalf("DeriveRecommendations error: %v", err)
	}
	if len(report.Created) != 1 || report.Created[0].Text != "install extinguishers" {
		t.Fatalf("expected legacy options fallback, got %+v", report.Created)
	}
}

func TestDeriveIssueWithoutRecommendation(t *testing.T) {
	store := &stubDerivationStore{
		assignment: &models.VendorAssignment{ID: "a1"},
		responses: []models.ResponseDetail{
			detail("r1", "No", nil, []byte(`{"choices":["Yes","No"]}`)),
		},
	}
	svc := NewDerivationService(store, nil)
	report, err := svc.DeriveRecommendations(context.Background(), "a1")
	if err != nil {
		t.Fatalf("DeriveRecommendations error: %v", err)
	}
	if len(report.Created) != 0 {
		t.Fatalf("no text resolvable, nothing may be created: %+v", report.Created)
	}
	if len(report.MissingText) != 1 || report.MissingText[0] != "r1" {
		t.Fatalf("expected r1 recorded as issue without recommendation, got %+v", report.MissingText)
	}
}

func TestDerivePartialFailureDoesNotAbort(t *testing.T) {
	rec := "fix it"
	store := &stubDerivationStore{
		assignment: &models.VendorAssignment{ID: "a1"},
		responses: []models.ResponseDetail{
			detail("r1", "No", &rec, nil),
			detail("r2", "No", &rec, nil),
		},
		insertErr: map[string]error{"r1": errors.New("constraint deferred")},
	}
	svc := NewDerivationService(store, nil)
	report, err := svc.DeriveRecommendations(context.Background(), "a1")
	if err != nil {
		t.Fatalf("batch must not abort: %v", err)
	}
	if len(report.Created) != 1 || report.Created[0].ResponseID != "r2" {
		t.Fatalf("surviving item must still derive, got %+v", report.Created)
	}
	if len(report.Errors) != 1 || report.Errors[0].ResponseID != "r1" {
		t.Fatalf("failed item must be reported, got %+v", report.Errors)
	}
}

func TestDerivePriorityMapping(t *testing.T) {
	rec := "isolate network"
	store := &stubDerivationStore{
		assignment: &models.VendorAssignment{ID: "a1"},
		responses: []models.ResponseDetail{
			detail("r1", "No", &rec, nil),
		},
	}
	svc := NewDerivationService(store, map[string]int{"quality": 1})
	report, err := svc.DeriveRecommendations(context.Background(), "a1")
	if err != nil {
		t.Fatalf("DeriveRecommendations error: %v", err)
	}
	if report.Created[0].Priority != 1 {
		t.Fatalf("expected mapped priority 1, got %d", report.Created[0].Priority)
	}
}

func TestDeriveUnknownAssignment(t *testing.T) {
	svc := NewDerivationService(&stubDerivationStore{}, nil)
	_, err := svc.DeriveRecommendations(context.Background(), "missing")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}
