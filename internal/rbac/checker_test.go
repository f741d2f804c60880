package rbac

import (
	"context"
	"testing"
)

func TestDefaultRoles(t *testing.T) {
	c := NewChecker(nil)

	if !c.Has("learner", "session:start") {
		t.Fatalf("learner should start sessions")
	}
	if !c.Has("learner", "cpd:record") {
		t.Fatalf("learner should record CPD activities")
	}
	if c.Has("learner", "report:view") {
		t.Fatalf("learner must not see cohort reports")
	}
	if c.Has("learner", "users:delete") {
		t.Fatalf("learner must not delete learner data")
	}

	for _, perm := range []string{"report:view", "audit:search", "users:bulk_upsert", "session:start"} {
		if !c.Has("admin", perm) {
			t.Fatalf("admin wildcard should grant %s", perm)
		}
	}

	if c.Has("", "session:start") || c.Has("ghost", "session:start") {
		t.Fatalf("unknown roles get nothing")
	}
}

func TestMatchPermWildcards(t *testing.T) {
	c := NewChecker(map[string][]string{
		"auditor": {"audit:*", "report:view"},
	})
	if !c.Has("auditor", "audit:search") {
		t.Fatalf("trailing star should match prefix")
	}
	if c.Has("auditor", "users:list") {
		t.Fatalf("prefix match must not leak across namespaces")
	}
	if !c.Any("auditor", "users:list", "report:view") {
		t.Fatalf("Any should accept when one permission matches")
	}
	if c.Any("auditor", "users:list", "users:delete") {
		t.Fatalf("Any should reject when none match")
	}
}

func TestRoleContext(t *testing.T) {
	ctx := WithRole(context.Background(), "admin")
	if got := RoleFromContext(ctx); got != "admin" {
		t.Fatalf("role from context: %q", got)
	}
	if got := RoleFromContext(context.Background()); got != "" {
		t.Fatalf("empty context must yield empty role, got %q", got)
	}
}
