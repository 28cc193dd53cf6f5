package crypto

import (
	"encoding/hex"
	"strings"
	"testing"
)

func validTestEnvelope(t *testing.T) *Envelope {
	t.Helper()
	engine := testEngine(t)
	env, err := engine.Encrypt([]byte("payload"), "ctx")
	if err != nil {
		t.Fatalf("Encrypt() failed: %v", err)
	}
	return env
}

func TestParseEnvelope_RoundTrip(t *testing.T) {
	env := validTestEnvelope(t)

	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	parsed, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("ParseEnvelope() failed: %v", err)
	}
	if *parsed != *env {
		t.Errorf("parsed envelope differs: got %+v, want %+v", parsed, env)
	}
}

func TestParseEnvelope_Invalid(t *testing.T) {
	valid := validTestEnvelope(t)

	tests := []struct {
		name   string
		mutate func(e *Envelope)
	}{
		{name: "unknown algorithm", mutate: func(e *Envelope) { e.Algorithm = "rot13" }},
		{name: "missing key id", mutate: func(e *Envelope) { e.KeyID = "" }},
		{name: "nonce not hex", mutate: func(e *Envelope) { e.Nonce = "zz" }},
		{name: "nonce wrong length", mutate: func(e *Envelope) { e.Nonce = hex.EncodeToString([]byte("short")) }},
		{name: "ciphertext not hex", mutate: func(e *Envelope) { e.Ciphertext = "not-hex!" }},
		{name: "ciphertext shorter than tag", mutate: func(e *Envelope) { e.Ciphertext = hex.EncodeToString([]byte{1, 2, 3}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := *valid
			tt.mutate(&bad)

			data, err := bad.Marshal()
			if err != nil {
				t.Fatalf("Marshal() failed: %v", err)
			}
			if _, err := ParseEnvelope(data); err == nil {
				t.Error("expected parse error")
			}
		})
	}

	if _, err := ParseEnvelope([]byte("{not json")); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestEnvelope_MarshalOmitsEmptyAAD(t *testing.T) {
	env := validTestEnvelope(t)
	env.AAD = ""

	data, err := env.Marshal()
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if strings.Contains(string(data), "aad") {
		t.Errorf("empty AAD should be omitted from wire form: %s", data)
	}
}
