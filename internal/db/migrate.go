package db

import (
	"context"
	"fmt"
)

// migrations are applied in order at startup; every statement is idempotent.
// The UNIQUE constraints on responses(evaluation_id, question_id, vendor_id)
// and recommendations(response_id) back the insert-if-absent semantics the
// services rely on.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS vendors (
		vendor_id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		contact_email TEXT,
		contact_phone TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		role_id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
		role_id UUID NOT NULL REFERENCES roles(role_id) ON DELETE CASCADE,
		module TEXT NOT NULL,
		action TEXT NOT NULL,
		PRIMARY KEY (role_id, module, action)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		role_id UUID NOT NULL REFERENCES roles(role_id),
		vendor_id UUID REFERENCES vendors(vendor_id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		question_id UUID PRIMARY KEY,
		text TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		weight NUMERIC NOT NULL DEFAULT 1,
		recommendation_text TEXT,
		options JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS evaluations (
		evaluation_id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		created_by UUID NOT NULL REFERENCES users(user_id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS evaluation_questions (
		evaluation_id UUID NOT NULL REFERENCES evaluations(evaluation_id) ON DELETE CASCADE,
		question_id UUID NOT NULL REFERENCES questions(question_id),
		weight_override NUMERIC,
		position INT NOT NULL DEFAULT 0,
		PRIMARY KEY (evaluation_id, question_id)
	)`,
	`CREATE TABLE IF NOT EXISTS vendor_assignments (
		assignment_id UUID PRIMARY KEY,
		evaluation_id UUID NOT NULL REFERENCES evaluations(evaluation_id) ON DELETE CASCADE,
		vendor_id UUID NOT NULL REFERENCES vendors(vendor_id),
		status TEXT NOT NULL DEFAULT 'pending',
		assigned_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ,
		UNIQUE (evaluation_id, vendor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS responses (
		response_id UUID PRIMARY KEY,
		evaluation_id UUID NOT NULL REFERENCES evaluations(evaluation_id) ON DELETE CASCADE,
		question_id UUID NOT NULL REFERENCES questions(question_id),
		vendor_id UUID NOT NULL REFERENCES vendors(vendor_id),
		assignment_id UUID NOT NULL REFERENCES vendor_assignments(assignment_id) ON DELETE CASCADE,
		answer TEXT NOT NULL DEFAULT '',
		response_value TEXT,
		score NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (evaluation_id, question_id, vendor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		recommendation_id UUID PRIMARY KEY,
		response_id UUID NOT NULL UNIQUE REFERENCES responses(response_id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		priority INT NOT NULL DEFAULT 3,
		status TEXT NOT NULL DEFAULT 'pending',
		evidence_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_assignment ON responses(assignment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_vendor ON vendor_assignments(vendor_id)`,
}

// Migrate applies the schema statements in order.
func (db *Database) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
