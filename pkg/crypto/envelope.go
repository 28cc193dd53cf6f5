package crypto

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// AlgorithmAESGCM is the only algorithm currently written into envelopes.
const AlgorithmAESGCM = "aes-256-gcm"

const (
	// KeySize is the required key material length in bytes.
	KeySize = 32

	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag length in bytes. The tag is
	// appended to the ciphertext inside the envelope.
	TagSize = 16
)

// Envelope is the serialized form of an encrypted value. It carries
// everything needed to decrypt later except the key itself: the algorithm,
// the id of the key used, the nonce, and the ciphertext with the
// authentication tag appended. AAD binds the envelope to its logical
// location (the config key) so an envelope copied between entries fails
// verification.
type Envelope struct {
	Algorithm  string `json:"algorithm"`
	KeyID      string `json:"key_id"`
	Nonce      string `json:"nonce"`      // hex encoded, NonceSize bytes
	Ciphertext string `json:"ciphertext"` // hex encoded, tag appended
	AAD        string `json:"aad,omitempty"`
}

// Marshal serializes the envelope to its JSON wire form.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, NewEncryptionError("marshal", err)
	}
	return data, nil
}

// nonceBytes decodes the hex nonce.
func (e *Envelope) nonceBytes() ([]byte, error) {
	nonce, err := hex.DecodeString(e.Nonce)
	if err != nil {
		return nil, fmt.Errorf("invalid nonce encoding: %w", err)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("invalid nonce length %d, want %d", len(nonce), NonceSize)
	}
	return nonce, nil
}

// ciphertextBytes decodes the hex ciphertext (including the appended tag).
func (e *Envelope) ciphertextBytes() ([]byte, error) {
	ct, err := hex.DecodeString(e.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	if len(ct) < TagSize {
		return nil, fmt.Errorf("ciphertext shorter than authentication tag")
	}
	return ct, nil
}

// ParseEnvelope deserializes and validates an envelope from its JSON form.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, NewEncryptionError("parse", err)
	}
	if e.Algorithm != AlgorithmAESGCM {
		return nil, NewEncryptionError("parse", fmt.Errorf("unsupported algorithm %q", e.Algorithm))
	}
	if e.KeyID == "" {
		return nil, NewEncryptionError("parse", fmt.Errorf("envelope missing key id"))
	}
	if _, err := e.nonceBytes(); err != nil {
		return nil, NewEncryptionError("parse", err)
	}
	if _, err := e.ciphertextBytes(); err != nil {
		return nil, NewEncryptionError("parse", err)
	}
	return &e, nil
}
