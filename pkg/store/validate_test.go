package store

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "app"},
		{name: "with separators", input: "llm.routing_rules-v2"},
		{name: "single char", input: "a"},
		{name: "digits first", input: "0app"},
		{name: "max length", input: strings.Repeat("a", MaxNameLength)},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", MaxNameLength+1), wantErr: true},
		{name: "leading dot", input: ".app", wantErr: true},
		{name: "leading dash", input: "-app", wantErr: true},
		{name: "whitespace", input: "my app", wantErr: true},
		{name: "slash", input: "app/prod", wantErr: true},
		{name: "colon clashes with key format", input: "app:prod", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("namespace", tt.input)
			if tt.wantErr && err == nil {
				t.Errorf("ValidateName(%q) expected error", tt.input)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateName(%q) unexpected error: %v", tt.input, err)
			}
		})
	}
}

func TestValidateValue(t *testing.T) {
	if err := ValidateValue(make([]byte, MaxValueBytes)); err != nil {
		t.Errorf("value at limit should pass: %v", err)
	}
	if err := ValidateValue(make([]byte, MaxValueBytes+1)); err == nil {
		t.Error("oversized value should fail validation")
	}
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name        string
		tags        []string
		description string
		wantErr     bool
	}{
		{name: "empty metadata"},
		{name: "normal", tags: []string{"ml", "routing"}, description: "model selection"},
		{name: "too many tags", tags: make([]string, MaxTags+1), wantErr: true},
		{name: "empty tag", tags: []string{""}, wantErr: true},
		{name: "long tag", tags: []string{strings.Repeat("x", MaxTagLength+1)}, wantErr: true},
		{name: "long description", description: strings.Repeat("x", MaxDescriptionLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Fill placeholder tags so only the count violates.
			for i := range tt.tags {
				if tt.tags[i] == "" && tt.name == "too many tags" {
					tt.tags[i] = "t"
				}
			}
			err := ValidateMetadata(tt.tags, tt.description)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	valid := NewConfigKey("app", "model", EnvProduction)
	if err := ValidateKey(valid); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}

	invalid := ConfigKey{Namespace: "app", Key: "model", Environment: Environment("qa")}
	if err := ValidateKey(invalid); err == nil {
		t.Error("invalid environment should fail key validation")
	}
}
