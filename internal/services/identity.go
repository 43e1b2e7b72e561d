package services

import (
	"context"
	"log"

	"github.com/provenor/evaluation-service/internal/models"
)

// IdentityStore abstracts the user/role lookups the resolver needs.
type IdentityStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListRolePermissions(ctx context.Context, roleID string) ([]models.Permission, error)
}

// CallerIdentity is the resolved view of an authenticated caller: role,
// vendor affiliation, and effective permission set.
type CallerIdentity struct {
	UserID      string
	Role        models.RoleName
	VendorID    *string
	Permissions map[string]bool
	IsAdmin     bool
}

// Allowed reports whether the identity holds the module/action permission.
// Admins hold every permission implicitly.
func (id *CallerIdentity) Allowed(module, action string) bool {
	if id == nil {
		return false
	}
	if id.IsAdmin {
		return true
	}
	return id.Permissions[permissionKey(module, action)]
}

func permissionKey(module, action string) string { return module + ":" + action }

// CanReadFleet reports whether the caller may read fleet-wide evaluation
// data rather than their own vendor's slice. Evaluator roles hold the
// evaluations:read permission; admins pass implicitly.
func (id *CallerIdentity) CanReadFleet() bool {
	return id.Allowed("evaluations", "read")
}

// IdentityService resolves caller identities. Every other component receives
// it explicitly instead of re-deriving role state inline.
type IdentityService struct {
	store IdentityStore
}

func NewIdentityService(store IdentityStore) *IdentityService {
	return &IdentityService{store: store}
}

// Resolve returns the caller's role, vendor affiliation and permission set.
// An empty caller id is Unauthenticated. Lookup failures fail closed: the
// returned identity carries an empty permission set and IsAdmin=false rather
// than propagating a false positive upward.
func (s *IdentityService) Resolve(ctx context.Context, callerID string) (*CallerIdentity, error) {
	if callerID == "" {
		return nil, NewUnauthenticatedError("no caller identity")
	}

	identity := &CallerIdentity{UserID: callerID, Permissions: map[string]bool{}}

	user, err := s.store.GetUser(ctx, callerID)
	if err != nil || user == nil {
		log.Printf("[identity] resolution failed for caller %s: %v", callerID, err)
		return identity, nil
	}

	identity.Role = user.Role
	identity.VendorID = user.VendorID
	identity.IsAdmin = user.Role == models.RoleAdmin

	perms, err := s.store.ListRolePermissions(ctx, user.RoleID)
	if err != nil {
		log.Printf("[identity] permission lookup failed for role %s: %v", user.RoleID, err)
		identity.Permissions = map[string]bool{}
		identity.IsAdmin = false
		return identity, nil
	}
	for _, p := range perms {
		identity.Permissions[permissionKey(p.Module, p.Action)] = true
	}
	return identity, nil
}

// HasPermission is the standalone check used by callers that only need a
// yes/no. It never returns an error: any resolution failure is "denied".
func (s *IdentityService) HasPermission(ctx context.Context, callerID, module, action string) bool {
	identity, err := s.Resolve(ctx, callerID)
	if err != nil {
		return false
	}
	return identity.Allowed(module, action)
}
