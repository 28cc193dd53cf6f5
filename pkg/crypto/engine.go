package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
)

// Engine encrypts and decrypts values against a Keyring. It is stateless
// apart from the ring and safe for concurrent use.
type Engine struct {
	keyring *Keyring
	logger  *slog.Logger
}

// NewEngine creates an Engine over the given keyring.
func NewEngine(keyring *Keyring) (*Engine, error) {
	if keyring == nil {
		return nil, NewEncryptionError("init", fmt.Errorf("keyring must not be nil"))
	}
	return &Engine{
		keyring: keyring,
		logger:  slog.Default().With("component", "crypto.engine"),
	}, nil
}

// Encrypt seals plaintext under the active key with a fresh random nonce.
// aad is bound into the authentication tag and recorded in the envelope;
// Decrypt verifies it matches the caller's expectation.
func (e *Engine) Encrypt(plaintext []byte, aad string) (*Envelope, error) {
	key, err := e.keyring.active()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, NewEncryptionError("encrypt", fmt.Errorf("nonce generation failed: %w", err))
	}

	ciphertext := key.aead.Seal(nil, nonce, plaintext, []byte(aad))

	return &Envelope{
		Algorithm:  AlgorithmAESGCM,
		KeyID:      key.ID(),
		Nonce:      hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
		AAD:        aad,
	}, nil
}

// Decrypt opens an envelope using the key named by its key id. It fails
// with ErrAuthenticationFailed when the tag does not verify, regardless of
// whether the cause is tampering or a wrong key.
func (e *Engine) Decrypt(env *Envelope) ([]byte, error) {
	if env.Algorithm != AlgorithmAESGCM {
		return nil, NewEncryptionError("decrypt", fmt.Errorf("unsupported algorithm %q", env.Algorithm))
	}

	key, err := e.keyring.get(env.KeyID)
	if err != nil {
		return nil, err
	}

	nonce, err := env.nonceBytes()
	if err != nil {
		return nil, NewEncryptionError("decrypt", err)
	}
	ciphertext, err := env.ciphertextBytes()
	if err != nil {
		return nil, NewEncryptionError("decrypt", err)
	}

	plaintext, err := key.aead.Open(nil, nonce, ciphertext, []byte(env.AAD))
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Seal encrypts plaintext and returns the serialized envelope, ready to be
// stored as a ConfigEntry value.
func (e *Engine) Seal(plaintext []byte, aad string) ([]byte, error) {
	env, err := e.Encrypt(plaintext, aad)
	if err != nil {
		return nil, err
	}
	return env.Marshal()
}

// Open parses a serialized envelope and decrypts it. expectAAD must match
// the AAD recorded at encryption time; a mismatch fails authentication, which
// blocks envelopes copied between config keys.
func (e *Engine) Open(value []byte, expectAAD string) ([]byte, error) {
	env, err := ParseEnvelope(value)
	if err != nil {
		return nil, err
	}
	if env.AAD != expectAAD {
		return nil, ErrAuthenticationFailed
	}
	return e.Decrypt(env)
}

// ActiveKeyID reports the key id new encryptions will use.
func (e *Engine) ActiveKeyID() string {
	return e.keyring.ActiveID()
}
