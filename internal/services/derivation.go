package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/provenor/evaluation-service/internal/models"
)

// DerivationStore abstracts the reads/writes the deriver performs. Insert
// must be keyed on response id with insert-if-absent semantics so racing
// derivations cannot create duplicates; the loser observes created=false.
type DerivationStore interface {
	GetAssignment(ctx context.Context, assignmentID string) (*models.VendorAssignment, error)
	ListResponsesByAssignment(ctx context.Context, assignmentID string) ([]models.ResponseDetail, error)
	InsertRecommendationIfAbsent(ctx context.Context, rec models.Recommendation) (created bool, err error)
}

// DerivationItemError records a single response whose derivation failed
// without aborting the batch.
type DerivationItemError struct {
	ResponseID string `json:"response_id"`
	Message    string `json:"message"`
}

// DerivationReport summarizes one derivation pass over an assignment.
type DerivationReport struct {
	Created []models.Recommendation `json:"created"`
	// Existing counts responses already covered by a recommendation.
	Existing int `json:"existing"`
	// MissingText lists unsatisfactory responses with no resolvable
	// remediation text ("issue without recommendation").
	MissingText []string              `json:"missing_text,omitempty"`
	Errors      []DerivationItemError `json:"errors,omitempty"`
}

// DefaultPriority is the midpoint ordinal used when no category mapping applies.
const DefaultPriority = 3

// DerivationService derives remediation recommendations from unsatisfactory
// responses. Priorities come from an evaluator-configurable category mapping
// (lower = more urgent).
type DerivationService struct {
	store              DerivationStore
	priorityByCategory map[string]int
	now                func() time.Time
	newID              func() string
}

func NewDerivationService(store DerivationStore, priorityByCategory map[string]int) *DerivationService {
	return &DerivationService{
		store:              store,
		priorityByCategory: priorityByCategory,
		now:                func() time.Time { return time.Now().UTC() },
		newID:              uuid.NewString,
	}
}

// DeriveRecommendations scans the assignment's responses and creates exactly
// one recommendation per unsatisfactory response with resolvable remediation
// text. Re-invocation is idempotent: already-covered responses are counted,
// not duplicated. Per-item failures are collected in the report and never
// abort the batch.
func (s *DerivationService) DeriveRecommendations(ctx context.Context, assignmentID string) (*DerivationReport, error) {
	assignment, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment %s: %w", assignmentID, err)
	}
	if assignment == nil {
		return nil, NewNotFoundError("vendor assignment not found")
	}

	responses, err := s.store.ListResponsesByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load responses for assignment %s: %w", assignmentID, err)
	}

	report := &DerivationReport{Created: []models.Recommendation{}}
	for _, r := range responses {
		if r.QuestionText == "" && r.QuestionRecommendation == nil && len(r.QuestionOptions) == 0 {
			// A response whose question row is gone violates a referential
			// invariant upstream; report it, never coerce it into "no issue".
			log.Printf("[derivation] response %s references missing question %s", r.ID, r.QuestionID)
			report.Errors = append(report.Errors, DerivationItemError{
				ResponseID: r.ID,
				Message:    "response question missing",
			})
			continue
		}

		if !NormalizeAnswer(r.Answer, r.ResponseValue).Unsatisfactory() {
			continue
		}

		text := resolveRemediationText(r)
		if text == "" {
			report.MissingText = append(report.MissingText, r.ID)
			continue
		}

		now := s.now()
		rec := models.Recommendation{
			ID:         s.newID(),
			ResponseID: r.ID,
			Text:       text,
			Priority:   s.priorityFor(r.QuestionCategory),
			Status:     models.RecommendationPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		created, err := s.store.InsertRecommendationIfAbsent(ctx, rec)
		if err != nil {
			log.Printf("[derivation] insert failed for response %s: %v", r.ID, err)
			report.Errors = append(report.Errors, DerivationItemError{ResponseID: r.ID, Message: err.Error()})
			continue
		}
		if !created {
			report.Existing++
			continue
		}
		report.Created = append(report.Created, rec)
	}
	return report, nil
}

func (s *DerivationService) priorityFor(category string) int {
	if p, ok := s.priorityByCategory[strings.ToLower(strings.TrimSpace(category))]; ok {
		return p
	}
	return DefaultPriority
}

// resolveRemediationText prefers the question's dedicated column and falls
// back to the legacy recommendationText key embedded in the options JSON.
// Nothing further is guessed.
func resolveRemediationText(r models.ResponseDetail) string {
	if r.QuestionRecommendation != nil {
		if text := strings.TrimSpace(*r.QuestionRecommendation); text != "" {
			return text
		}
	}
	if len(r.QuestionOptions) == 0 {
		return ""
	}
	var legacy struct {
		RecommendationText string `json:"recommendationText"`
	}
	if err := json.Unmarshal(r.QuestionOptions, &legacy); err != nil {
		return ""
	}
	return strings.TrimSpace(legacy.RecommendationText)
}
