package db

import (
	"context"

	"github.com/provenor/evaluation-service/internal/models"
)

// ListVendors returns all vendors ordered by name.
func (db *Database) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	query := `
		SELECT vendor_id::text, name, contact_email, contact_phone
		FROM vendors
		ORDER BY name
	`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err, "list vendors")
	}
	defer rows.Close()

	vendors := make([]models.Vendor, 0)
	for rows.Next() {
		var v models.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.ContactEmail, &v.ContactPhone); err != nil {
			return nil, classify(err, "scan vendor")
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// CreateVendor inserts a new vendor and returns its ID.
func (db *Database) CreateVendor(ctx context.Context, v models.Vendor) (string, error) {
	query := `
		INSERT INTO vendors (vendor_id, name, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4)
		RETURNING vendor_id::text
	`
	var id string
	if err := db.Pool.QueryRow(ctx, query, v.ID, v.Name, v.ContactEmail, v.ContactPhone).Scan(&id); err != nil {
		return "", classify(err, "create vendor")
	}
	return id, nil
}
