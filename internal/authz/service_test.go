package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceRoleWithGrantedPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("editor", "/products/:id", "PUT"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceRole("editor", "/api/products/42", "put")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceRole("editor", "/api/products/42", "DELETE")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	if err := svc.RevokeRolePolicy("editor", "/products/:id", "PUT"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, _ = svc.EnforceRole("editor", "/api/products/42", "PUT")
	if allow {
		t.Fatalf("expected revoked policy to deny")
	}
}

func TestEnforceRoleRejectsEmptyRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	allow, err := svc.EnforceRole("  ", "/api/products", "POST")
	if err != nil {
		t.Fatalf("empty role should not error: %v", err)
	}
	if allow {
		t.Fatalf("empty role must be denied")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/orders/:id/status", want: "/orders/:id/status"},
		{in: "/orders/admin/all", want: "/orders/admin/all"},
		{in: "categories", want: "/categories"},
		{in: "/api", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 重复执行保持幂等
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:catalog_manager": true,
		"role:order_manager":   true,
		"role:admin":           true,
		"role:customer":        true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	cases := []struct {
		role   string
		path   string
		method string
		want   bool
	}{
		{role: "admin", path: "/api/products", method: "POST", want: true},
		{role: "admin", path: "/api/products/7/images", method: "POST", want: true},
		{role: "admin", path: "/api/orders/12/status", method: "PUT", want: true},
		{role: "admin", path: "/api/orders/admin/export", method: "GET", want: true},
		{role: "customer", path: "/api/products", method: "POST", want: false},
		{role: "customer", path: "/api/orders/admin/all", method: "GET", want: false},
		{role: "order_manager", path: "/api/categories/3", method: "DELETE", want: false},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.path, tc.method)
		if err != nil {
			t.Fatalf("enforce %s %s %s failed: %v", tc.role, tc.method, tc.path, err)
		}
		if allow != tc.want {
			t.Fatalf("enforce %s %s %s want %v got %v", tc.role, tc.method, tc.path, tc.want, allow)
		}
	}

	policies, err := svc.GetRolePolicies("admin")
	if err != nil {
		t.Fatalf("get admin policies failed: %v", err)
	}
	if len(policies) != 10 {
		t.Fatalf("want 10 inherited admin policies got %d", len(policies))
	}
}
