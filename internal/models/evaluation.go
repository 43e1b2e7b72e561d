package models

import "time"

// EvaluationStatus represents the evaluation lifecycle (mirrors DB enum evaluation_status)
type EvaluationStatus string

const (
	EvaluationDraft      EvaluationStatus = "draft"
	EvaluationInProgress EvaluationStatus = "in_progress"
	EvaluationCompleted  EvaluationStatus = "completed"
	EvaluationArchived   EvaluationStatus = "archived"
)

// Evaluation is a questionnaire owned by its creating evaluator
// Backed by table `evaluations`
type Evaluation struct {
	ID          string           `json:"evaluation_id" db:"evaluation_id"`
	Title       string           `json:"title" db:"title"`
	Description *string          `json:"description,omitempty" db:"description"`
	Status      EvaluationStatus `json:"status" db:"status"`
	CreatedBy   string           `json:"created_by" db:"created_by"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// Question is a reusable questionnaire item. Weight defaults to 1 when unset.
// The legacy `options` JSON sometimes embeds a recommendationText key in place
// of the dedicated recommendation_text column.
// Backed by table `questions`
type Question struct {
	ID                 string  `json:"question_id" db:"question_id"`
	Text               string  `json:"text" db:"text"`
	Category           string  `json:"category" db:"category"`
	Weight             float64 `json:"weight" db:"weight"`
	RecommendationText *string `json:"recommendation_text,omitempty" db:"recommendation_text"`
	Options            []byte  `json:"options,omitempty" db:"options"`
}

// EvaluationQuestion joins an evaluation to a question, preserving the
// per-evaluation weight override and display position.
// Backed by table `evaluation_questions`
type EvaluationQuestion struct {
	EvaluationID   string   `json:"evaluation_id" db:"evaluation_id"`
	QuestionID     string   `json:"question_id" db:"question_id"`
	WeightOverride *float64 `json:"weight_override,omitempty" db:"weight_override"`
	Position       int      `json:"position" db:"position"`

	// Question fields hydrated on read
	Text     string  `json:"text,omitempty" db:"text"`
	Category string  `json:"category,omitempty" db:"category"`
	Weight   float64 `json:"weight" db:"weight"`
}

// EffectiveWeight returns the per-evaluation weight override when present,
// otherwise the question's own weight.
func (eq EvaluationQuestion) EffectiveWeight() float64 {
	if eq.WeightOverride != nil {
		return *eq.WeightOverride
	}
	return eq.Weight
}

// AssignmentStatus represents vendor assignment progress (mirrors DB enum assignment_status)
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// VendorAssignment pairs one evaluation with one vendor; this is the unit
// compliance is scored against.
// Backed by table `vendor_assignments`
type VendorAssignment struct {
	ID           string           `json:"assignment_id" db:"assignment_id"`
	EvaluationID string           `json:"evaluation_id" db:"evaluation_id"`
	VendorID     string           `json:"vendor_id" db:"vendor_id"`
	Status       AssignmentStatus `json:"status" db:"status"`
	AssignedAt   time.Time        `json:"assigned_at" db:"assigned_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
}
