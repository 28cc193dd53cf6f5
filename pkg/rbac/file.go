package rbac

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk YAML layout:
//
//	roles:
//	  - name: deployer
//	    permissions:
//	      - namespace: "payments-*"
//	        environment: "production"
//	        action: write
//	assignments:
//	  - actor: alice
//	    role: Admin
//	  - actor: svc-deployer
//	    role: deployer
//	    namespace: payments-api
type policyFile struct {
	Roles       []Role           `yaml:"roles"`
	Assignments []RoleAssignment `yaml:"assignments"`
}

// FileSource loads roles and assignments from a YAML file.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:   path,
		logger: slog.Default().With("component", "rbac.file"),
	}
}

// Load reads and validates the file. A file that fails validation is
// rejected as a whole so a partial edit can never clear the previous table.
func (s *FileSource) Load() ([]Role, []RoleAssignment, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read rbac file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse rbac file %s: %w", s.path, err)
	}

	if err := validatePolicyFile(&file); err != nil {
		return nil, nil, fmt.Errorf("invalid rbac file %s: %w", s.path, err)
	}

	return file.Roles, file.Assignments, nil
}

// Apply loads the file and swaps both tables into the enforcer. On error the
// enforcer keeps its current tables.
func (s *FileSource) Apply(e *Enforcer) error {
	roles, assignments, err := s.Load()
	if err != nil {
		return err
	}

	e.SetRoles(roles)
	e.SetAssignments(assignments)

	s.logger.Info("rbac tables loaded",
		"path", s.path,
		"roles", len(roles),
		"assignments", len(assignments),
	)
	return nil
}

// validatePolicyFile checks structural validity and that every assignment
// references a role that exists (custom or builtin). All problems are
// reported, not just the first.
func validatePolicyFile(file *policyFile) error {
	var errs []error

	known := make(map[string]bool)
	for _, role := range BuiltinRoles() {
		known[role.Name] = true
	}

	for i, role := range file.Roles {
		if role.Name == "" {
			errs = append(errs, fmt.Errorf("roles[%d]: name is required", i))
			continue
		}
		known[role.Name] = true
		for j, perm := range role.Permissions {
			if !perm.Action.Valid() {
				errs = append(errs, fmt.Errorf("roles[%d].permissions[%d]: unknown action %q", i, j, perm.Action))
			}
			if perm.Namespace == "" {
				errs = append(errs, fmt.Errorf("roles[%d].permissions[%d]: namespace pattern is required", i, j))
			}
			if perm.Environment == "" {
				errs = append(errs, fmt.Errorf("roles[%d].permissions[%d]: environment pattern is required", i, j))
			}
		}
	}

	for i, assignment := range file.Assignments {
		if assignment.Actor == "" {
			errs = append(errs, fmt.Errorf("assignments[%d]: actor is required", i))
		}
		if assignment.Role == "" {
			errs = append(errs, fmt.Errorf("assignments[%d]: role is required", i))
		} else if !known[assignment.Role] {
			errs = append(errs, fmt.Errorf("assignments[%d]: unknown role %q", i, assignment.Role))
		}
	}

	return errors.Join(errs...)
}
