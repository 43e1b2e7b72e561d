package models

import "time"

// RecommendationStatus represents the remediation lifecycle (mirrors DB enum recommendation_status)
type RecommendationStatus string

const (
	RecommendationPending     RecommendationStatus = "pending"
	RecommendationInProgress  RecommendationStatus = "in_progress"
	RecommendationImplemented RecommendationStatus = "implemented"
	RecommendationRejected    RecommendationStatus = "rejected"
)

// Valid reports whether s is one of the four enumerated statuses.
func (s RecommendationStatus) Valid() bool {
	switch s {
	case RecommendationPending, RecommendationInProgress, RecommendationImplemented, RecommendationRejected:
		return true
	}
	return false
}

// Recommendation is a remediation item derived from one unsatisfactory
// response. response_id is unique: derivation is idempotent per response.
// Backed by table `recommendations`
type Recommendation struct {
	ID          string               `json:"recommendation_id" db:"recommendation_id"`
	ResponseID  string               `json:"response_id" db:"response_id"`
	Text        string               `json:"text" db:"text"`
	Priority    int                  `json:"priority" db:"priority"`
	Status      RecommendationStatus `json:"status" db:"status"`
	EvidenceURL *string              `json:"evidence_url,omitempty" db:"evidence_url"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty" db:"completed_at"`
}

// RecommendationDetail carries the joined context used by role-scoped
// listings and ownership checks.
type RecommendationDetail struct {
	Recommendation
	EvaluationID    string `json:"evaluation_id" db:"evaluation_id"`
	EvaluationTitle string `json:"evaluation_title" db:"evaluation_title"`
	VendorID        string `json:"vendor_id" db:"vendor_id"`
	VendorName      string `json:"vendor_name" db:"vendor_name"`
	QuestionText    string `json:"question_text" db:"question_text"`
}
