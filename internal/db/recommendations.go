package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/provenor/evaluation-service/internal/models"
)

// InsertRecommendationIfAbsent creates the recommendation unless one already
// exists for the same response. The losing writer of a racing derivation
// observes created=false, never an error.
func (db *Database) InsertRecommendationIfAbsent(ctx context.Context, rec models.Recommendation) (bool, error) {
	query := `
		INSERT INTO recommendations (recommendation_id, response_id, text, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (response_id) DO NOTHING
	`
	cmd, err := db.Pool.Exec(ctx, query,
		rec.ID, rec.ResponseID, rec.Text, rec.Priority, string(rec.Status), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return false, classify(err, "insert recommendation")
	}
	return cmd.RowsAffected() == 1, nil
}

// GetRecommendation returns one recommendation, or nil when absent.
func (db *Database) GetRecommendation(ctx context.Context, recommendationID string) (*models.Recommendation, error) {
	query := `
		SELECT recommendation_id::text, response_id::text, text, priority, status,
		       evidence_url, created_at, updated_at, completed_at
		FROM recommendations
		WHERE recommendation_id = $1
	`
	var r models.Recommendation
	err := db.Pool.QueryRow(ctx, query, recommendationID).Scan(
		&r.ID, &r.ResponseID, &r.Text, &r.Priority, &r.Status,
		&r.EvidenceURL, &r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "get recommendation")
	}
	return &r, nil
}

// GetRecommendationVendor resolves the owning vendor through the
// recommendation -> response -> assignment chain. Empty string means the
// chain is broken.
func (db *Database) GetRecommendationVendor(ctx context.Context, recommendationID string) (string, error) {
	query := `
		SELECT COALESCE(va.vendor_id::text, '')
		FROM recommendations rec
		JOIN responses r ON r.response_id = rec.response_id
		JOIN vendor_assignments va ON va.assignment_id = r.assignment_id
		WHERE rec.recommendation_id = $1
	`
	var vendorID string
	err := db.Pool.QueryRow(ctx, query, recommendationID).Scan(&vendorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", classify(err, "get recommendation vendor")
	}
	return vendorID, nil
}

// UpdateRecommendationStatus persists a lifecycle transition.
func (db *Database) UpdateRecommendationStatus(ctx context.Context, rec models.Recommendation) error {
	query := `
		UPDATE recommendations
		SET status = $2, updated_at = $3, completed_at = $4
		WHERE recommendation_id = $1
	`
	cmd, err := db.Pool.Exec(ctx, query, rec.ID, string(rec.Status), rec.UpdatedAt, rec.CompletedAt)
	if err != nil {
		return classify(err, "update recommendation status")
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("recommendation not found")
	}
	return nil
}

// SetRecommendationEvidence records the uploaded evidence document URL.
func (db *Database) SetRecommendationEvidence(ctx context.Context, recommendationID, url string) error {
	query := `
		UPDATE recommendations
		SET evidence_url = $2, updated_at = now()
		WHERE recommendation_id = $1
	`
	cmd, err := db.Pool.Exec(ctx, query, recommendationID, url)
	if err != nil {
		return classify(err, "set recommendation evidence")
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("recommendation not found")
	}
	return nil
}

// ListRecommendationDetails returns recommendations with their evaluation and
// vendor context, optionally filtered to one vendor for supplier-scoped
// listings. Ordered for grouping by evaluation, most urgent first.
func (db *Database) ListRecommendationDetails(ctx context.Context, vendorID *string) ([]models.RecommendationDetail, error) {
	query := `
		SELECT rec.recommendation_id::text, rec.response_id::text, rec.text, rec.priority, rec.status,
		       rec.evidence_url, rec.created_at, rec.updated_at, rec.completed_at,
		       e.evaluation_id::text, e.title,
		       va.vendor_id::text, COALESCE(v.name, ''),
		       COALESCE(q.text, '')
		FROM recommendations rec
		JOIN responses r ON r.response_id = rec.response_id
		JOIN vendor_assignments va ON va.assignment_id = r.assignment_id
		JOIN evaluations e ON e.evaluation_id = va.evaluation_id
		LEFT JOIN vendors v ON v.vendor_id = va.vendor_id
		LEFT JOIN questions q ON q.question_id = r.question_id
	`
	args := []any{}
	if vendorID != nil {
		query += ` WHERE va.vendor_id = $1`
		args = append(args, *vendorID)
	}
	query += ` ORDER BY e.created_at DESC, rec.priority, rec.created_at`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list recommendation details")
	}
	defer rows.Close()

	details := make([]models.RecommendationDetail, 0)
	for rows.Next() {
		var d models.RecommendationDetail
		if err := rows.Scan(
			&d.ID, &d.ResponseID, &d.Text, &d.Priority, &d.Status,
			&d.EvidenceURL, &d.CreatedAt, &d.UpdatedAt, &d.CompletedAt,
			&d.EvaluationID, &d.EvaluationTitle,
			&d.VendorID, &d.VendorName,
			&d.QuestionText,
		); err != nil {
			return nil, classify(err, "scan recommendation detail")
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
