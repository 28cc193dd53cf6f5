package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("storage.backend", "unknown backend")
	if !strings.Contains(err.Error(), "storage.backend") {
		t.Errorf("field missing from message: %q", err.Error())
	}

	bare := NewConfigError("", "file not found")
	if strings.Contains(bare.Error(), " in ") {
		t.Errorf("fieldless error names a field: %q", bare.Error())
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	cause := errors.New("backend closed")
	err := NewCommandError("rollback", cause)

	if !strings.Contains(err.Error(), "rollback") {
		t.Errorf("command missing from message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("CommandError does not unwrap to its cause")
	}
}
