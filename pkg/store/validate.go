package store

import "fmt"

// Input bounds enforced on every write. Read paths accept whatever is stored.
const (
	MaxNameLength        = 128
	MaxValueBytes        = 1 << 20 // 1 MiB
	MaxTags              = 16
	MaxTagLength         = 64
	MaxDescriptionLength = 1024
)

// ValidateName checks a namespace or key: 1 to MaxNameLength characters, the
// first alphanumeric, the remainder alphanumeric plus '.', '_', '-'.
// field names the input in the returned ValidationError.
func ValidateName(field, name string) error {
	if name == "" {
		return NewValidationError(field, "must not be empty")
	}
	if len(name) > MaxNameLength {
		return NewValidationError(field, fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}
	for i, r := range name {
		if isAlphanumeric(r) {
			continue
		}
		if i > 0 && (r == '.' || r == '_' || r == '-') {
			continue
		}
		if i == 0 {
			return NewValidationError(field, "must start with an alphanumeric character")
		}
		return NewValidationError(field, fmt.Sprintf("contains invalid character %q", r))
	}
	return nil
}

// ValidateValue checks the payload size bound.
func ValidateValue(value []byte) error {
	if len(value) > MaxValueBytes {
		return NewValidationError("value", fmt.Sprintf("must be at most %d bytes, got %d", MaxValueBytes, len(value)))
	}
	return nil
}

// ValidateMetadata checks tag and description bounds.
func ValidateMetadata(tags []string, description string) error {
	if len(tags) > MaxTags {
		return NewValidationError("tags", fmt.Sprintf("at most %d tags allowed", MaxTags))
	}
	for _, tag := range tags {
		if tag == "" {
			return NewValidationError("tags", "tags must not be empty")
		}
		if len(tag) > MaxTagLength {
			return NewValidationError("tags", fmt.Sprintf("tag %q exceeds %d characters", tag, MaxTagLength))
		}
	}
	if len(description) > MaxDescriptionLength {
		return NewValidationError("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}
	return nil
}

// ValidateKey checks the full composite identity.
func ValidateKey(key ConfigKey) error {
	if err := ValidateName("namespace", key.Namespace); err != nil {
		return err
	}
	if err := ValidateName("key", key.Key); err != nil {
		return err
	}
	if !key.Environment.Valid() {
		return NewValidationError("environment", fmt.Sprintf("unknown environment %q", key.Environment))
	}
	return nil
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
