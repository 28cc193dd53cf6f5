package crypto

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed indicates that an envelope failed its integrity
// check: the ciphertext was tampered with, the additional data does not
// match, or the wrong key was used. No partial plaintext is ever returned.
var ErrAuthenticationFailed = errors.New("authentication failed: envelope integrity check failed")

// ErrNoActiveKey indicates an encryption attempt on a keyring with no
// active key configured.
var ErrNoActiveKey = errors.New("no active encryption key configured")

// EncryptionError wraps a failure inside the crypto engine. Key material is
// never part of the message.
type EncryptionError struct {
	Operation string // "encrypt", "decrypt", "derive", "parse"
	Cause     error
}

// Error implements the error interface.
func (e *EncryptionError) Error() string {
	return fmt.Sprintf("encryption error [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *EncryptionError) Unwrap() error {
	return e.Cause
}

// NewEncryptionError creates an EncryptionError.
func NewEncryptionError(operation string, cause error) *EncryptionError {
	return &EncryptionError{Operation: operation, Cause: cause}
}

// KeyNotFoundError indicates an envelope references a key id that is not
// present in the keyring.
type KeyNotFoundError struct {
	KeyID string
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("encryption key %q not found in keyring", e.KeyID)
}

// IsAuthenticationFailed reports whether err is an authentication failure.
func IsAuthenticationFailed(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed)
}
