package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/provenor/evaluation-service/internal/models"
)

// CreateAssignment pairs an evaluation with a vendor. The (evaluation,
// vendor) uniqueness makes repeated assignment a no-op.
func (db *Database) CreateAssignment(ctx context.Context, a models.VendorAssignment) (string, error) {
	query := `
		INSERT INTO vendor_assignments (assignment_id, evaluation_id, vendor_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (evaluation_id, vendor_id) DO NOTHING
		RETURNING assignment_id::text
	`
	var id string
	err := db.Pool.QueryRow(ctx, query, a.ID, a.EvaluationID, a.VendorID, string(a.Status)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict path: return the existing assignment id
		lookup := `SELECT assignment_id::text FROM vendor_assignments WHERE evaluation_id = $1 AND vendor_id = $2`
		if err := db.Pool.QueryRow(ctx, lookup, a.EvaluationID, a.VendorID).Scan(&id); err != nil {
			return "", classify(err, "lookup existing assignment")
		}
		return id, nil
	}
	if err != nil {
		return "", classify(err, "create assignment")
	}
	return id, nil
}

// GetAssignment returns one vendor assignment, or nil when absent.
func (db *Database) GetAssignment(ctx context.Context, assignmentID string) (*models.VendorAssignment, error) {
	query := `
		SELECT assignment_id::text, evaluation_id::text, vendor_id::text, status, assigned_at, completed_at
		FROM vendor_assignments
		WHERE assignment_id = $1
	`
	var a models.VendorAssignment
	err := db.Pool.QueryRow(ctx, query, assignmentID).Scan(
		&a.ID, &a.EvaluationID, &a.VendorID, &a.Status, &a.AssignedAt, &a.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "get assignment")
	}
	return &a, nil
}

// GetAssignmentByVendor returns the assignment for an (evaluation, vendor)
// pair, or nil when the vendor was never assigned.
func (db *Database) GetAssignmentByVendor(ctx context.Context, evaluationID, vendorID string) (*models.VendorAssignment, error) {
	query := `
		SELECT assignment_id::text, evaluation_id::text, vendor_id::text, status, assigned_at, completed_at
		FROM vendor_assignments
		WHERE evaluation_id = $1 AND vendor_id = $2
	`
	var a models.VendorAssignment
	err := db.Pool.QueryRow(ctx, query, evaluationID, vendorID).Scan(
		&a.ID, &a.EvaluationID, &a.VendorID, &a.Status, &a.AssignedAt, &a.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "get assignment by vendor")
	}
	return &a, nil
}

// ListAssignments returns every vendor assignment in the fleet.
func (db *Database) ListAssignments(ctx context.Context) ([]models.VendorAssignment, error) {
	query := `
		SELECT assignment_id::text, evaluation_id::text, vendor_id::text, status, assigned_at, completed_at
		FROM vendor_assignments
		ORDER BY assigned_at
	`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err, "list assignments")
	}
	defer rows.Close()

	assignments := make([]models.VendorAssignment, 0)
	for rows.Next() {
		var a models.VendorAssignment
		if err := rows.Scan(&a.ID, &a.EvaluationID, &a.VendorID, &a.Status, &a.AssignedAt, &a.CompletedAt); err != nil {
			return nil, classify(err, "scan assignment")
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// SetAssignmentStatus moves an assignment through pending/in_progress/
// completed; entering completed stamps completed_at.
func (db *Database) SetAssignmentStatus(ctx context.Context, assignmentID string, status models.AssignmentStatus) error {
	query := `
		UPDATE vendor_assignments
		SET status = $2,
		    completed_at = CASE WHEN $2 = 'completed' THEN now() ELSE NULL END
		WHERE assignment_id = $1
	`
	cmd, err := db.Pool.Exec(ctx, query, assignmentID, string(status))
	if err != nil {
		return classify(err, "set assignment status")
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("assignment not found")
	}
	return nil
}
