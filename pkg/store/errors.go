package store

import (
	"errors"
	"fmt"
)

// NotFoundError indicates that no configuration entry exists for the key at
// the resolved environment (including the Base fallback), or that a requested
// version is absent from the history.
type NotFoundError struct {
	Key     ConfigKey
	Version uint64 // 0 when the key itself (not a version) was missing
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("config not found: %s version %d", e.Key, e.Version)
	}
	return fmt.Sprintf("config not found: %s", e.Key)
}

// NewNotFoundError creates a NotFoundError for a missing key.
func NewNotFoundError(key ConfigKey) *NotFoundError {
	return &NotFoundError{Key: key}
}

// NewVersionNotFoundError creates a NotFoundError for a missing version.
func NewVersionNotFoundError(key ConfigKey, version uint64) *NotFoundError {
	return &NotFoundError{Key: key, Version: version}
}

// PermissionDeniedError indicates the actor lacks an explicit grant for the
// attempted action. The message deliberately omits the resource so a denial
// never confirms whether the resource exists.
type PermissionDeniedError struct {
	Actor  string
	Action string
}

// Error implements the error interface.
func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: actor %q is not allowed to %s", e.Actor, e.Action)
}

// NewPermissionDeniedError creates a PermissionDeniedError.
func NewPermissionDeniedError(actor, action string) *PermissionDeniedError {
	return &PermissionDeniedError{Actor: actor, Action: action}
}

// ValidationError indicates malformed input: a bad namespace or key, an
// oversized value, or an otherwise violated constraint. Field names the
// offending input and Constraint states the violated rule.
type ValidationError struct {
	Field      string
	Constraint string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Constraint)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, constraint string) *ValidationError {
	return &ValidationError{Field: field, Constraint: constraint}
}

// VersionConflictError indicates a concurrent writer raced the per-key
// version counter. The caller should retry the whole logical operation, not
// just the final write.
type VersionConflictError struct {
	Key   ConfigKey
	Cause error
}

// Error implements the error interface.
func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict for %s: concurrent write detected", e.Key)
}

// Unwrap returns the underlying cause error.
func (e *VersionConflictError) Unwrap() error {
	return e.Cause
}

// NewVersionConflictError creates a VersionConflictError.
func NewVersionConflictError(key ConfigKey, cause error) *VersionConflictError {
	return &VersionConflictError{Key: key, Cause: cause}
}

// StorageError represents a failure in a storage backend. Unavailable marks
// transient infrastructure failures that the caller may retry with backoff;
// other storage errors are permanent for the attempted operation.
type StorageError struct {
	Backend     string // backend type ("memory", "sqlite", "postgres")
	Operation   string // operation that failed ("append", "get_current", ...)
	Unavailable bool   // transient, retryable
	Cause       error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Unavailable {
		return fmt.Sprintf("storage unavailable [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
	}
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// NewStorageUnavailableError creates a StorageError marked transient.
func NewStorageUnavailableError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Unavailable: true, Cause: cause}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsPermissionDenied reports whether err is a PermissionDeniedError.
func IsPermissionDenied(err error) bool {
	var e *PermissionDeniedError
	return errors.As(err, &e)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsVersionConflict reports whether err is a VersionConflictError.
func IsVersionConflict(err error) bool {
	var e *VersionConflictError
	return errors.As(err, &e)
}

// IsStorageUnavailable reports whether err is a transient StorageError.
func IsStorageUnavailable(err error) bool {
	var e *StorageError
	return errors.As(err, &e) && e.Unavailable
}
