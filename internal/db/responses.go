package db

import (
	"context"

	"github.com/provenor/evaluation-service/internal/models"
)

// UpsertResponse inserts or updates the vendor's answer to a question. The
// (evaluation, question, vendor) uniqueness keeps at most one row per pair.
func (db *Database) UpsertResponse(ctx context.Context, r models.Response) (string, error) {
	query := `
		INSERT INTO responses (response_id, evaluation_id, question_id, vendor_id, assignment_id, answer, response_value, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (evaluation_id, question_id, vendor_id)
		DO UPDATE SET
		  answer = EXCLUDED.answer,
		  response_value = EXCLUDED.response_value,
		  score = EXCLUDED.score,
		  updated_at = now()
		RETURNING response_id::text
	`
	var id string
	err := db.Pool.QueryRow(ctx, query,
		r.ID, r.EvaluationID, r.QuestionID, r.VendorID, r.AssignmentID, r.Answer, r.ResponseValue, r.Score,
	).Scan(&id)
	if err != nil {
		return "", classify(err, "upsert response")
	}
	return id, nil
}

// ListResponsesByEvaluation returns every response recorded for an
// evaluation; the scoring service groups them by vendor.
func (db *Database) ListResponsesByEvaluation(ctx context.Context, evaluationID string) ([]models.Response, error) {
	query := `
		SELECT response_id::text, evaluation_id::text, question_id::text, vendor_id::text,
		       assignment_id::text, answer, response_value, score, created_at, updated_at
		FROM responses
		WHERE evaluation_id = $1
	`
	rows, err := db.Pool.Query(ctx, query, evaluationID)
	if err != nil {
		return nil, classify(err, "list responses by evaluation")
	}
	defer rows.Close()

	responses := make([]models.Response, 0)
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(
			&r.ID, &r.EvaluationID, &r.QuestionID, &r.VendorID,
			&r.AssignmentID, &r.Answer, &r.ResponseValue, &r.Score, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, classify(err, "scan response")
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// ListResponsesByAssignment returns an assignment's responses with the
// question fields the deriver needs, assembled as one read-only projection.
func (db *Database) ListResponsesByAssignment(ctx context.Context, assignmentID string) ([]models.ResponseDetail, error) {
	query := `
		SELECT r.response_id::text, r.evaluation_id::text, r.question_id::text, r.vendor_id::text,
		       r.assignment_id::text, r.answer, r.response_value, r.score, r.created_at, r.updated_at,
		       COALESCE(q.text, ''), COALESCE(q.category, ''), q.recommendation_text, q.options
		FROM responses r
		LEFT JOIN questions q ON q.question_id = r.question_id
		WHERE r.assignment_id = $1
		ORDER BY r.created_at
	`
	rows, err := db.Pool.Query(ctx, query, assignmentID)
	if err != nil {
		return nil, classify(err, "list responses by assignment")
	}
	defer rows.Close()

	details := make([]models.ResponseDetail, 0)
	for rows.Next() {
		var d models.ResponseDetail
		if err := rows.Scan(
			&d.ID, &d.EvaluationID, &d.QuestionID, &d.VendorID,
			&d.AssignmentID, &d.Answer, &d.ResponseValue, &d.Score, &d.CreatedAt, &d.UpdatedAt,
			&d.QuestionText, &d.QuestionCategory, &d.QuestionRecommendation, &d.QuestionOptions,
		); err != nil {
			return nil, classify(err, "scan response detail")
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
