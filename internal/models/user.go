package models

// RoleName represents the built-in role names (mirrors DB enum role_name)
type RoleName string

const (
	RoleAdmin     RoleName = "admin"
	RoleEvaluator RoleName = "evaluator"
	RoleSupplier  RoleName = "supplier"
)

// Role groups a set of module/action permissions
// Backed by table `roles`
type Role struct {
	ID   string   `json:"role_id" db:"role_id"`
	Name RoleName `json:"name" db:"name"`
}

// Permission is a single module/action pair granted to a role
// Backed by table `role_permissions`
type Permission struct {
	RoleID string `json:"role_id" db:"role_id"`
	Module string `json:"module" db:"module"`
	Action string `json:"action" db:"action"`
}

// User represents a platform user. Supplier-role users carry a vendor
// affiliation; evaluator/admin users do not.
// Backed by table `users`
type User struct {
	ID       string   `json:"user_id" db:"user_id"`
	Email    string   `json:"email" db:"email"`
	FullName string   `json:"full_name" db:"full_name"`
	RoleID   string   `json:"role_id" db:"role_id"`
	Role     RoleName `json:"role" db:"role_name"`
	VendorID *string  `json:"vendor_id,omitempty" db:"vendor_id"`
}

// Vendor represents a supplier organization under evaluation
// Backed by table `vendors`
type Vendor struct {
	ID           string  `json:"vendor_id" db:"vendor_id"`
	Name         string  `json:"name" db:"name"`
	ContactEmail *string `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone *string `json:"contact_phone,omitempty" db:"contact_phone"`
}
