package rbac

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/vesta/pkg/store"
)

func writeRBACFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rbac.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

func TestFileSource_Load(t *testing.T) {
	path := writeRBACFile(t, `
roles:
  - name: deployer
    permissions:
      - namespace: "svc-*"
        environment: "production"
        action: write
      - namespace: "svc-*"
        environment: "production"
        action: rollback
assignments:
  - actor: alice
    role: Admin
  - actor: deploy-bot
    role: deployer
  - actor: bob
    role: Editor
    namespace: payments
`)

	roles, assignments, err := NewFileSource(path).Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "deployer" {
		t.Errorf("Expected 1 role 'deployer', got %v", roles)
	}
	if len(roles[0].Permissions) != 2 {
		t.Errorf("Expected 2 permissions, got %d", len(roles[0].Permissions))
	}
	if len(assignments) != 3 {
		t.Fatalf("Expected 3 assignments, got %d", len(assignments))
	}
	if assignments[2].Namespace != "payments" {
		t.Errorf("Expected namespace-scoped assignment, got %q", assignments[2].Namespace)
	}
}

func TestFileSource_UnknownRoleReference(t *testing.T) {
	path := writeRBACFile(t, `
assignments:
  - actor: alice
    role: does-not-exist
`)

	_, _, err := NewFileSource(path).Load()
	if err == nil {
		t.Fatal("Expected error for unknown role reference")
	}
	if !strings.Contains(err.Error(), "does-not-exist") {
		t.Errorf("Expected error to name the role, got %v", err)
	}
}

func TestFileSource_InvalidAction(t *testing.T) {
	path := writeRBACFile(t, `
roles:
  - name: broken
    permissions:
      - namespace: "*"
        environment: "*"
        action: administrate
`)

	_, _, err := NewFileSource(path).Load()
	if err == nil {
		t.Fatal("Expected error for unknown action")
	}
	if !strings.Contains(err.Error(), "administrate") {
		t.Errorf("Expected error to name the action, got %v", err)
	}
}

func TestFileSource_ReportsAllProblems(t *testing.T) {
	path := writeRBACFile(t, `
roles:
  - name: ""
    permissions: []
assignments:
  - actor: ""
    role: ""
  - actor: bob
    role: missing
`)

	_, _, err := NewFileSource(path).Load()
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	for _, want := range []string{"name is required", "actor is required", "missing"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got %v", want, err)
		}
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	_, _, err := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestFileSource_Apply(t *testing.T) {
	path := writeRBACFile(t, `
assignments:
  - actor: alice
    role: Viewer
`)

	enforcer := NewEnforcer()
	if err := NewFileSource(path).Apply(enforcer); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	res := Resource{Namespace: "app", Environment: store.EnvBase}
	if err := enforcer.Authorize("alice", ActionRead, res); err != nil {
		t.Errorf("Expected read allowed after Apply, got %v", err)
	}
	if err := enforcer.Authorize("alice", ActionWrite, res); !store.IsPermissionDenied(err) {
		t.Errorf("Expected write denied, got %v", err)
	}
}

func TestFileSource_ApplyKeepsTablesOnError(t *testing.T) {
	good := writeRBACFile(t, `
assignments:
  - actor: alice
    role: Admin
`)

	enforcer := NewEnforcer()
	if err := NewFileSource(good).Apply(enforcer); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	// A broken file must not clear the working table.
	bad := writeRBACFile(t, `assignments: [{actor: alice, role: nonexistent}]`)
	if err := NewFileSource(bad).Apply(enforcer); err == nil {
		t.Fatal("Expected Apply of broken file to fail")
	}

	res := Resource{Namespace: "app", Environment: store.EnvBase}
	if err := enforcer.Authorize("alice", ActionWrite, res); err != nil {
		t.Errorf("Expected previous table to survive failed Apply, got %v", err)
	}
}
