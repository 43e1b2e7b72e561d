package services

import (
	"context"
	"errors"
	"testing"

	"github.com/provenor/evaluation-service/internal/models"
)

type stubIdentityStore struct {
	users    map[string]*models.User
	perms    map[string][]models.Permission
	userErr  error
	permsErr error
}

func (s *stubIdentityStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	return s.users[userID], nil
}

func (s *stubIdentityStore) ListRolePermissions(ctx context.Context, roleID string) ([]models.Permission, error) {
	if s.permsErr != nil {
		return nil, s.permsErr
	}
	return s.perms[roleID], nil
}

func strptr(s string) *string { return &s }

func TestResolveUnauthenticated(t *testing.T) {
	svc := NewIdentityService(&stubIdentityStore{})
	_, err := svc.Resolve(context.Background(), "")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthenticated {
		t.Fatalf("expected unauthenticated error, got %v", err)
	}
}

func TestResolveSupplier(t *testing.T) {
	store := &stubIdentityStore{
		users: map[string]*models.User{
			"u1": {ID: "u1", RoleID: "r-supplier", Role: models.RoleSupplier, VendorID: strptr("v1")},
		},
		perms: map[string][]models.Permission{
			"r-supplier": {{Module: "recommendations", Action: "update"}},
		},
	}
	svc := NewIdentityService(store)
	id, err := svc.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if id.IsAdmin {
		t.Fatal("supplier must not be admin")
	}
	if id.VendorID == nil || *id.VendorID != "v1" {
		t.Fatalf("unexpected vendor affiliation: %v", id.VendorID)
	}
	if !id.Allowed("recommendations", "update") {
		t.Fatal("granted permission must be allowed")
	}
	if id.Allowed("metrics", "read") {
		t.Fatal("ungranted permission must be denied")
	}
}

func TestResolveFailsClosed(t *testing.T) {
	svc := NewIdentityService(&stubIdentityStore{userErr: errors.New("connection reset")})
	id, err := svc.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("lookup failure must not propagate, got %v", err)
	}
	if id.IsAdmin || len(id.Permissions) != 0 {
		t.Fatalf("expected empty identity, got %+v", id)
	}
}

func TestResolvePermissionLookupFailureClearsAdmin(t *testing.T) {
	store := &stubIdentityStore{
		users: map[string]*models.User{
			"u1": {ID: "u1", RoleID: "r-admin", Role: models.RoleAdmin},
		},
		permsErr: errors.New("timeout"),
	}
	svc := NewIdentityService(store)
	id, err := svc.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if id.IsAdmin {
		t.Fatal("admin flag must be cleared when permission lookup fails")
	}
}

func TestHasPermissionNeverErrors(t *testing.T) {
	svc := NewIdentityService(&stubIdentityStore{userErr: errors.New("down")})
	if svc.HasPermission(context.Background(), "u1", "metrics", "read") {
		t.Fatal("resolution failure must deny")
	}
	if svc.HasPermission(context.Background(), "", "metrics", "read") {
		t.Fatal("missing caller must deny")
	}
}

func TestCanReadFleet(t *testing.T) {
	cases := []struct {
		name string
		id   *CallerIdentity
		want bool
	}{
		{"admin", &CallerIdentity{IsAdmin: true}, true},
		{"evaluator with read grant", &CallerIdentity{Permissions: map[string]bool{"evaluations:read": true}}, true},
		{"supplier", &CallerIdentity{VendorID: strptr("v1"), Permissions: map[string]bool{"recommendations:update": true}}, false},
		{"nil identity", nil, false},
	}
	for _, tc := range cases {
		if got := tc.id.CanReadFleet(); got != tc.want {
			t.Errorf("%s: CanReadFleet() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAdminAllowedEverything(t *testing.T) {
	store := &stubIdentityStore{
		users: map[string]*models.User{
			"a1": {ID: "a1", RoleID: "r-admin", Role: models.RoleAdmin},
		},
	}
	svc := NewIdentityService(store)
	id, err := svc.Resolve(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !id.Allowed("anything", "at_all") {
		t.Fatal("admin must pass every permission check")
	}
}
