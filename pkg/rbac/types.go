package rbac

import (
	"fmt"

	"mercator-hq/vesta/pkg/store"
)

// Action is an operation an actor can be granted on configuration resources.
type Action string

const (
	ActionRead       Action = "read"
	ActionWrite      Action = "write"
	ActionDelete     Action = "delete"
	ActionRollback   Action = "rollback"
	ActionReadSecret Action = "read_secret"
)

// Actions lists all grantable actions.
func Actions() []Action {
	return []Action{ActionRead, ActionWrite, ActionDelete, ActionRollback, ActionReadSecret}
}

// Valid reports whether a is a defined action.
func (a Action) Valid() bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete, ActionRollback, ActionReadSecret:
		return true
	}
	return false
}

// Resource identifies what an action targets: a namespace within an
// environment.
type Resource struct {
	Namespace   string
	Environment store.Environment
}

// Permission grants one action on resources matching a namespace glob and an
// environment glob. Globs use path.Match syntax; "*" matches everything.
// Action is always an exact match — there are no wildcard actions.
type Permission struct {
	Namespace   string `yaml:"namespace" json:"namespace"`
	Environment string `yaml:"environment" json:"environment"`
	Action      Action `yaml:"action" json:"action"`
}

func (p Permission) String() string {
	return fmt.Sprintf("%s on %s/%s", p.Action, p.Namespace, p.Environment)
}

// Role is a named set of permissions.
type Role struct {
	Name        string       `yaml:"name" json:"name"`
	Permissions []Permission `yaml:"permissions" json:"permissions"`
}

// RoleAssignment binds an actor to a role. A non-empty Namespace restricts
// the assignment to resources in exactly that namespace; empty means global.
type RoleAssignment struct {
	Actor     string `yaml:"actor" json:"actor"`
	Role      string `yaml:"role" json:"role"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
}

// Builtin role names.
const (
	RoleAdmin   = "Admin"
	RoleEditor  = "Editor"
	RoleViewer  = "Viewer"
	RoleAuditor = "Auditor"
)

// BuiltinRoles returns the four predefined roles. Admin and Editor hold all
// five actions on every resource; Viewer and Auditor are read-only.
func BuiltinRoles() []Role {
	all := func() []Permission {
		perms := make([]Permission, 0, len(Actions()))
		for _, action := range Actions() {
			perms = append(perms, Permission{Namespace: "*", Environment: "*", Action: action})
		}
		return perms
	}

	readOnly := []Permission{
		{Namespace: "*", Environment: "*", Action: ActionRead},
	}

	return []Role{
		{Name: RoleAdmin, Permissions: all()},
		{Name: RoleEditor, Permissions: []Permission{
			{Namespace: "*", Environment: "*", Action: ActionRead},
			{Namespace: "*", Environment: "*", Action: ActionWrite},
			{Namespace: "*", Environment: "*", Action: ActionDelete},
			{Namespace: "*", Environment: "*", Action: ActionRollback},
			{Namespace: "*", Environment: "*", Action: ActionReadSecret},
		}},
		{Name: RoleViewer, Permissions: readOnly},
		{Name: RoleAuditor, Permissions: readOnly},
	}
}
