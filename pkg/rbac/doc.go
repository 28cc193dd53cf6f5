// Package rbac implements role-based access control for configuration
// operations.
//
// An Enforcer evaluates whether an actor may perform an action on a resource
// (a namespace + environment pair). Evaluation is deny-by-default: an actor
// with no role assignments, or whose roles grant no matching permission, is
// denied. There is no action subsumption — read_secret and rollback must be
// granted explicitly and are never implied by read or write.
//
// The role table is a snapshot behind a read-write lock, replaced wholesale
// by SetRoles/SetAssignments or by reloading a YAML file. A Watcher can
// hot-reload the file on change, so permission edits take effect without a
// restart.
package rbac
