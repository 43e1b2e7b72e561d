package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/provenor/evaluation-service/internal/models"
)

// GetUser returns a user with its role name hydrated, or nil when absent.
func (db *Database) GetUser(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT
		  u.user_id::text,
		  u.email,
		  u.full_name,
		  u.role_id::text,
		  r.name,
		  u.vendor_id::text
		FROM users u
		JOIN roles r ON r.role_id = u.role_id
		WHERE u.user_id = $1
	`
	var u models.User
	err := db.Pool.QueryRow(ctx, query, userID).Scan(
		&u.ID, &u.Email, &u.FullName, &u.RoleID, &u.Role, &u.VendorID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "get user")
	}
	return &u, nil
}

// ListRolePermissions returns the module/action pairs granted to a role.
func (db *Database) ListRolePermissions(ctx context.Context, roleID string) ([]models.Permission, error) {
	query := `
		SELECT role_id::text, module, action
		FROM role_permissions
		WHERE role_id = $1
		ORDER BY module, action
	`
	rows, err := db.Pool.Query(ctx, query, roleID)
	if err != nil {
		return nil, classify(err, "list role permissions")
	}
	defer rows.Close()

	perms := make([]models.Permission, 0)
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.RoleID, &p.Module, &p.Action); err != nil {
			return nil, classify(err, "scan role permission")
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
