package rbac

import (
	"log/slog"
	"path"
	"sync"

	"mercator-hq/vesta/pkg/store"
)

// Enforcer evaluates authorization requests against a role table snapshot.
// Reads take the shared lock, so the hot path never blocks on an update;
// SetRoles and SetAssignments replace the snapshot wholesale.
type Enforcer struct {
	mu          sync.RWMutex
	roles       map[string]Role
	assignments map[string][]RoleAssignment // keyed by actor
	logger      *slog.Logger
}

// NewEnforcer creates an enforcer preloaded with the builtin roles and no
// assignments. Until assignments are set, every request is denied.
func NewEnforcer() *Enforcer {
	e := &Enforcer{
		roles:       make(map[string]Role),
		assignments: make(map[string][]RoleAssignment),
		logger:      slog.Default().With("component", "rbac.enforcer"),
	}
	for _, role := range BuiltinRoles() {
		e.roles[role.Name] = role
	}
	return e
}

// Authorize returns nil if actor may perform action on res, or
// PermissionDeniedError. Denial reasons are logged at debug level only;
// the error itself never names the missing permission.
func (e *Enforcer) Authorize(actor string, action Action, res Resource) error {
	if actor == "" || !action.Valid() {
		return store.NewPermissionDeniedError(actor, string(action))
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, assignment := range e.assignments[actor] {
		// A namespace-scoped assignment only applies inside that namespace.
		if assignment.Namespace != "" && assignment.Namespace != res.Namespace {
			continue
		}
		role, ok := e.roles[assignment.Role]
		if !ok {
			e.logger.Debug("assignment references unknown role",
				"actor", actor, "role", assignment.Role)
			continue
		}
		for _, perm := range role.Permissions {
			if perm.Action != action {
				continue
			}
			if matchGlob(perm.Namespace, res.Namespace) &&
				matchGlob(perm.Environment, string(res.Environment)) {
				return nil
			}
		}
	}

	e.logger.Debug("authorization denied",
		"actor", actor, "action", action,
		"namespace", res.Namespace, "environment", res.Environment)
	return store.NewPermissionDeniedError(actor, string(action))
}

// SetRoles replaces the role table. The builtin roles stay registered unless
// shadowed by a role of the same name.
func (e *Enforcer) SetRoles(roles []Role) {
	table := make(map[string]Role, len(roles)+4)
	for _, role := range BuiltinRoles() {
		table[role.Name] = role
	}
	for _, role := range roles {
		table[role.Name] = role
	}

	e.mu.Lock()
	e.roles = table
	e.mu.Unlock()
}

// SetAssignments replaces the assignment table.
func (e *Enforcer) SetAssignments(assignments []RoleAssignment) {
	table := make(map[string][]RoleAssignment, len(assignments))
	for _, assignment := range assignments {
		table[assignment.Actor] = append(table[assignment.Actor], assignment)
	}

	e.mu.Lock()
	e.assignments = table
	e.mu.Unlock()
}

// Roles returns the current role table as a slice snapshot.
func (e *Enforcer) Roles() []Role {
	e.mu.RLock()
	defer e.mu.RUnlock()

	roles := make([]Role, 0, len(e.roles))
	for _, role := range e.roles {
		roles = append(roles, role)
	}
	return roles
}

// Assignments returns the current assignment table as a slice snapshot.
func (e *Enforcer) Assignments() []RoleAssignment {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var assignments []RoleAssignment
	for _, actorAssignments := range e.assignments {
		assignments = append(assignments, actorAssignments...)
	}
	return assignments
}

// matchGlob matches value against a path.Match pattern. A malformed pattern
// matches nothing.
func matchGlob(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, value)
	return err == nil && ok
}
