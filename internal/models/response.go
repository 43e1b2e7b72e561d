package models

import "time"

// Response is a vendor's answer to one question in one evaluation.
// At most one row per (evaluation, question, vendor).
// Backed by table `responses`
type Response struct {
	ID            string    `json:"response_id" db:"response_id"`
	EvaluationID  string    `json:"evaluation_id" db:"evaluation_id"`
	QuestionID    string    `json:"question_id" db:"question_id"`
	VendorID      string    `json:"vendor_id" db:"vendor_id"`
	AssignmentID  string    `json:"assignment_id" db:"assignment_id"`
	Answer        string    `json:"answer" db:"answer"`
	ResponseValue *string   `json:"response_value,omitempty" db:"response_value"`
	Score         float64   `json:"score" db:"score"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ResponseDetail hydrates a response with the question fields the deriver
// needs, loaded in one read-only projection.
type ResponseDetail struct {
	Response
	QuestionText           string  `json:"question_text" db:"question_text"`
	QuestionCategory       string  `json:"question_category" db:"question_category"`
	QuestionRecommendation *string `json:"question_recommendation,omitempty" db:"question_recommendation"`
	QuestionOptions        []byte  `json:"question_options,omitempty" db:"question_options"`
}
