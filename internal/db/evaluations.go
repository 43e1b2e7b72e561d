package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/provenor/evaluation-service/internal/models"
)

// CreateEvaluation inserts a new evaluation and returns its ID.
func (db *Database) CreateEvaluation(ctx context.Context, e models.Evaluation) (string, error) {
	query := `
		INSERT INTO evaluations (evaluation_id, title, description, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING evaluation_id::text
	`
	var id string
	err := db.Pool.QueryRow(ctx, query, e.ID, e.Title, e.Description, string(e.Status), e.CreatedBy).Scan(&id)
	if err != nil {
		return "", classify(err, "create evaluation")
	}
	return id, nil
}

// GetEvaluation returns one evaluation, or nil when absent.
func (db *Database) GetEvaluation(ctx context.Context, evaluationID string) (*models.Evaluation, error) {
	query := `
		SELECT evaluation_id::text, title, description, status, created_by::text, created_at, updated_at
		FROM evaluations
		WHERE evaluation_id = $1
	`
	var e models.Evaluation
	err := db.Pool.QueryRow(ctx, query, evaluationID).Scan(
		&e.ID, &e.Title, &e.Description, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "get evaluation")
	}
	return &e, nil
}

// ListEvaluations returns all evaluations, newest first.
func (db *Database) ListEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	query := `
		SELECT evaluation_id::text, title, description, status, created_by::text, created_at, updated_at
		FROM evaluations
		ORDER BY created_at DESC
	`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err, "list evaluations")
	}
	defer rows.Close()

	evaluations := make([]models.Evaluation, 0)
	for rows.Next() {
		var e models.Evaluation
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, classify(err, "scan evaluation")
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}

// ListEvaluationsByVendor returns the evaluations the vendor is assigned to,
// newest first.
func (db *Database) ListEvaluationsByVendor(ctx context.Context, vendorID string) ([]models.Evaluation, error) {
	query := `
		SELECT e.evaluation_id::text, e.title, e.description, e.status, e.created_by::text, e.created_at, e.updated_at
		FROM evaluations e
		JOIN vendor_assignments va ON va.evaluation_id = e.evaluation_id
		WHERE va.vendor_id = $1
		ORDER BY e.created_at DESC
	`
	rows, err := db.Pool.Query(ctx, query, vendorID)
	if err != nil {
		return nil, classify(err, "list evaluations by vendor")
	}
	defer rows.Close()

	evaluations := make([]models.Evaluation, 0)
	for rows.Next() {
		var e models.Evaluation
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, classify(err, "scan evaluation")
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}

// ListEvaluationIDs returns every evaluation id; the metrics aggregator
// iterates these.
func (db *Database) ListEvaluationIDs(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT evaluation_id::text FROM evaluations ORDER BY created_at`)
	if err != nil {
		return nil, classify(err, "list evaluation ids")
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err, "scan evaluation id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddEvaluationQuestion attaches a question to an evaluation with an optional
// per-evaluation weight override.
func (db *Database) AddEvaluationQuestion(ctx context.Context, eq models.EvaluationQuestion) error {
	query := `
		INSERT INTO evaluation_questions (evaluation_id, question_id, weight_override, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (evaluation_id, question_id)
		DO UPDATE SET weight_override = EXCLUDED.weight_override, position = EXCLUDED.position
	`
	_, err := db.Pool.Exec(ctx, query, eq.EvaluationID, eq.QuestionID, eq.WeightOverride, eq.Position)
	return classify(err, "add evaluation question")
}

// ListEvaluationQuestions returns the evaluation's question set with question
// fields hydrated, in display order. Question weight falls back to 1 when the
// column is null.
func (db *Database) ListEvaluationQuestions(ctx context.Context, evaluationID string) ([]models.EvaluationQuestion, error) {
	query := `
		SELECT
		  eq.evaluation_id::text,
		  eq.question_id::text,
		  eq.weight_override,
		  eq.position,
		  q.text,
		  q.category,
		  COALESCE(q.weight, 1)
		FROM evaluation_questions eq
		JOIN questions q ON q.question_id = eq.question_id
		WHERE eq.evaluation_id = $1
		ORDER BY eq.position, eq.question_id
	`
	rows, err := db.Pool.Query(ctx, query, evaluationID)
	if err != nil {
		return nil, classify(err, "list evaluation questions")
	}
	defer rows.Close()

	questions := make([]models.EvaluationQuestion, 0)
	for rows.Next() {
		var eq models.EvaluationQuestion
		if err := rows.Scan(
			&eq.EvaluationID, &eq.QuestionID, &eq.WeightOverride, &eq.Position,
			&eq.Text, &eq.Category, &eq.Weight,
		); err != nil {
			return nil, classify(err, "scan evaluation question")
		}
		questions = append(questions, eq)
	}
	return questions, rows.Err()
}

// CreateQuestion inserts a reusable question and returns its ID.
func (db *Database) CreateQuestion(ctx context.Context, q models.Question) (string, error) {
	query := `
		INSERT INTO questions (question_id, text, category, weight, recommendation_text, options)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING question_id::text
	`
	var id string
	err := db.Pool.QueryRow(ctx, query, q.ID, q.Text, q.Category, q.Weight, q.RecommendationText, q.Options).Scan(&id)
	if err != nil {
		return "", classify(err, "create question")
	}
	return id, nil
}
