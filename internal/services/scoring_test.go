package services

import (
	"context"
	"testing"

	"github.com/provenor/evaluation-service/internal/models"
)

type stubScoringStore struct {
	questions map[string][]models.EvaluationQuestion
	responses map[string][]models.Response
}

func (s *stubScoringStore) ListEvaluationQuestions(ctx context.Context, evaluationID string) ([]models.EvaluationQuestion, error) {
	return s.questions[evaluationID], nil
}

func (s *stubScoringStore) ListResponsesByEvaluation(ctx context.Context, evaluationID string) ([]models.Response, error) {
	return s.responses[evaluationID], nil
}

func f64(v float64) *float64 { return &v }

func TestComputeComplianceWeighted(t *testing.T) {
	store := &stubScoringStore{
		questions: map[string][]models.EvaluationQuestion{
			"e1": {
				{QuestionID: "q1", Weight: 2},
				{QuestionID: "q2", Weight: 1},
			},
		},
		responses: map[string][]models.Response{
			"e1": {
				{VendorID: "v1", QuestionID: "q1", Score: 0},
				{VendorID: "v1", QuestionID: "q2", Score: 1},
			},
		},
	}
	svc := NewScoringService(store)
	got, err := svc.ComputeCompliance(context.Background(), "e1")
	if err != nil {
		t.Fatalf("ComputeCompliance error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 scored vendor, got %d", len(got))
	}
	if got[0].ScorePct != 33 {
		t.Fatalf("expected round(100*1/3)=33, got %d", got[0].ScorePct)
	}
	if got[0].ResponseCount != 2 {
		t.Fatalf("expected 2 responses counted, got %d", got[0].ResponseCount)
	}
}

func TestComputeComplianceZeroTotalWeight(t *testing.T) {
	store := &stubScoringStore{
		questions: map[string][]models.EvaluationQuestion{
			"e1": {{QuestionID: "q1", Weight: 0}},
		},
		responses: map[string][]models.Response{
			"e1": {{VendorID: "v1", QuestionID: "q1", Score: 1}},
		},
	}
	svc := NewScoringService(store)
	got, err := svc.ComputeCompliance(context.Background(), "e1")
	if err != nil {
		t.Fatalf("ComputeCompliance error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("zero total weight must yield empty result, got %+v", got)
	}
}

func TestComputeComplianceWeightOverride(t *testing.T) {
	store := &stubScoringStore{
		questions: map[string][]models.EvaluationQuestion{
			"e1": {
				{QuestionID: "q1", Weight: 1, WeightOverride: f64(4)},
				{QuestionID: "q2", Weight: 1},
			},
		},
		responses: map[string][]models.Response{
			"e1": {
				{VendorID: "v1", QuestionID: "q1", Score: 4},
				{VendorID: "v1", QuestionID: "q2", Score: 0},
			},
		},
	}
	svc := NewScoringService(store)
	got, err := svc.ComputeCompliance(context.Background(), "e1")
	if err != nil {
		t.Fatalf("ComputeCompliance error: %v", err)
	}
	if got[0].ScorePct != 80 {
		t.Fatalf("expected round(100*4/5)=80, got %d", got[0].ScorePct)
	}
}

func TestComputeComplianceOmitsSilentVendors(t *testing.T) {
	store := &stubScoringStore{
		questions: map[string][]models.EvaluationQuestion{
			"e1": {{QuestionID: "q1", Weight: 1}},
		},
		responses: map[string][]models.Response{
			"e1": {{VendorID: "v2", QuestionID: "q1", Score: 1}},
		},
	}
	svc := NewScoringService(store)
	got, err := svc.ComputeCompliance(context.Background(), "e1")
	if err != nil {
		t.Fatalf("ComputeCompliance error: %v", err)
	}
	if len(got) != 1 || got[0].VendorID != "v2" {
		t.Fatalf("only answering vendors are scored, got %+v", got)
	}
}

func twoVendorScoringStore() *stubScoringStore {
	return &stubScoringStore{
		questions: map[string][]models.EvaluationQuestion{
			"e1": {{QuestionID: "q1", Weight: 1}},
		},
		responses: map[string][]models.Response{
			"e1": {
				{VendorID: "v1", QuestionID: "q1", Score: 1},
				{VendorID: "v2", QuestionID: "q1", Score: 0},
			},
		},
	}
}

func TestComputeComplianceForCallerScopesVendorCallers(t *testing.T) {
	svc := NewScoringService(twoVendorScoringStore())
	supplier := &CallerIdentity{
		UserID:      "u1",
		Role:        models.RoleSupplier,
		VendorID:    strptr("v2"),
		Permissions: map[string]bool{},
	}
	got, err := svc.ComputeComplianceForCaller(context.Background(), supplier, "e1")
	if err != nil {
		t.Fatalf("ComputeComplianceForCaller error: %v", err)
	}
	if len(got) != 1 || got[0].VendorID != "v2" {
		t.Fatalf("vendor caller must see only their own score, got %+v", got)
	}
}

func TestComputeComplianceForCallerFleetReadersSeeAll(t *testing.T) {
	svc := NewScoringService(twoVendorScoringStore())
	for name, caller := range map[string]*CallerIdentity{
		"admin":     {UserID: "a1", Role: models.RoleAdmin, IsAdmin: true},
		"evaluator": {UserID: "u2", Role: models.RoleEvaluator, Permissions: map[string]bool{"evaluations:read": true}},
	} {
		got, err := svc.ComputeComplianceForCaller(context.Background(), caller, "e1")
		if err != nil {
			t.Fatalf("%s: ComputeComplianceForCaller error: %v", name, err)
		}
		if len(got) != 2 {
			t.Fatalf("%s must see every vendor, got %+v", name, got)
		}
	}
}

func TestComputeComplianceForCallerNoAffiliation(t *testing.T) {
	svc := NewScoringService(twoVendorScoringStore())
	caller := &CallerIdentity{UserID: "u3", Permissions: map[string]bool{}}
	_, err := svc.ComputeComplianceForCaller(context.Background(), caller, "e1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorForbidden {
		t.Fatalf("caller with no vendor and no read permission must be refused, got %v", err)
	}
}

func TestComputeComplianceDeterministicOrder(t *testing.T) {
	store := &stubScoringStore{
		questions: map[string][]models.EvaluationQuestion{
			"e1": {{QuestionID: "q1", Weight: 1}},
		},
		responses: map[string][]models.Response{
			"e1": {
				{VendorID: "v9", QuestionID: "q1", Score: 1},
				{VendorID: "v1", QuestionID: "q1", Score: 1},
				{VendorID: "v5", QuestionID: "q1", Score: 0},
			},
		},
	}
	svc := NewScoringService(store)
	got, err := svc.ComputeCompliance(context.Background(), "e1")
	if err != nil {
		t.Fatalf("ComputeCompliance error: %v", err)
	}
	if got[0].VendorID != "v1" || got[1].VendorID != "v5" || got[2].VendorID != "v9" {
		t.Fatalf("expected vendor-id order, got %+v", got)
	}
}
