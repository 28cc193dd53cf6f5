package crypto

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

func TestKeyring_AddAndActive(t *testing.T) {
	ring := NewKeyring()
	t.Cleanup(ring.Close)

	if ring.ActiveID() != "" {
		t.Errorf("empty ring ActiveID = %q, want empty", ring.ActiveID())
	}

	m1, _ := GenerateMaterial()
	if err := ring.Add("k1", m1); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if ring.ActiveID() != "k1" {
		t.Errorf("first key should become active, got %q", ring.ActiveID())
	}

	m2, _ := GenerateMaterial()
	if err := ring.Add("k2", m2); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if ring.ActiveID() != "k1" {
		t.Errorf("Add() must not change the active key, got %q", ring.ActiveID())
	}
	if ring.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ring.Len())
	}
}

func TestKeyring_AddValidation(t *testing.T) {
	ring := NewKeyring()
	t.Cleanup(ring.Close)

	tests := []struct {
		name     string
		id       string
		material []byte
	}{
		{name: "empty id", id: "", material: make([]byte, KeySize)},
		{name: "short material", id: "k", material: make([]byte, 16)},
		{name: "long material", id: "k", material: make([]byte, 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ring.Add(tt.id, tt.material); err == nil {
				t.Error("expected error")
			}
		})
	}

	m, _ := GenerateMaterial()
	if err := ring.Add("dup", m); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := ring.Add("dup", m); err == nil {
		t.Error("duplicate id should be rejected")
	}
}

func TestKeyring_SetActiveUnknown(t *testing.T) {
	ring := NewKeyring()
	t.Cleanup(ring.Close)

	if err := ring.SetActive("missing"); err == nil {
		t.Error("SetActive on unknown id should fail")
	}
}

func TestKey_Destroy(t *testing.T) {
	material, _ := GenerateMaterial()
	key, err := newKey("k", material)
	if err != nil {
		t.Fatalf("newKey() failed: %v", err)
	}

	derived := key.derived
	if bytes.Equal(derived, make([]byte, KeySize)) {
		t.Fatal("derived key should not be all zeros before Destroy")
	}

	key.Destroy()

	if !bytes.Equal(derived, make([]byte, KeySize)) {
		t.Error("Destroy() did not scrub the derived key bytes")
	}
	if key.aead != nil {
		t.Error("Destroy() did not drop the AEAD")
	}
}

func TestKeyring_Close(t *testing.T) {
	ring := NewKeyring()

	m, _ := GenerateMaterial()
	if err := ring.Add("k", m); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	key, err := ring.get("k")
	if err != nil {
		t.Fatalf("get() failed: %v", err)
	}
	derived := key.derived

	ring.Close()

	if !bytes.Equal(derived, make([]byte, KeySize)) {
		t.Error("Close() did not scrub key material")
	}
	if ring.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", ring.Len())
	}
	if ring.ActiveID() != "" {
		t.Errorf("ActiveID() after Close = %q, want empty", ring.ActiveID())
	}
}

func TestKeyDerivation_DiffersPerKeyID(t *testing.T) {
	material, _ := GenerateMaterial()

	k1, err := newKey("id-a", material)
	if err != nil {
		t.Fatalf("newKey() failed: %v", err)
	}
	defer k1.Destroy()

	k2, err := newKey("id-b", material)
	if err != nil {
		t.Fatalf("newKey() failed: %v", err)
	}
	defer k2.Destroy()

	if bytes.Equal(k1.derived, k2.derived) {
		t.Error("same material under different ids should derive different keys")
	}
}

func TestErrorMessages_OmitKeyMaterial(t *testing.T) {
	material, _ := GenerateMaterial()
	ring := NewKeyring()
	t.Cleanup(ring.Close)

	if err := ring.Add("k", material); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	err := ring.Add("k", material)
	if err == nil {
		t.Fatal("duplicate Add() should fail")
	}
	if strings.Contains(strings.ToLower(err.Error()), hex.EncodeToString(material)) {
		t.Error("error message leaks key material")
	}
}
