package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// GenerateMaterial returns KeySize bytes from the system CSPRNG, suitable as
// key material for Keyring.Add.
func GenerateMaterial() ([]byte, error) {
	b := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, NewEncryptionError("generate", err)
	}
	return b, nil
}

// hkdfSalt domain-separates Vesta key derivation from any other use of the
// same material. Changing it invalidates every existing envelope.
const hkdfSalt = "vesta.crypto.v1"

// Key holds one named encryption key: the configured material and the AEAD
// derived from it. Destroy scrubs the byte slices the container owns.
type Key struct {
	id      string
	aead    cipher.AEAD
	derived []byte
}

// newKey derives the AES-256-GCM AEAD for the given material. The material
// is not retained; only the derived key bytes are, so they can be scrubbed.
func newKey(id string, material []byte) (*Key, error) {
	if id == "" {
		return nil, NewEncryptionError("derive", fmt.Errorf("key id must not be empty"))
	}
	if len(material) != KeySize {
		return nil, NewEncryptionError("derive", fmt.Errorf("key material must be %d bytes, got %d", KeySize, len(material)))
	}

	derived := make([]byte, KeySize)
	r := hkdf.New(sha256.New, material, []byte(hkdfSalt), []byte("key:"+id))
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, NewEncryptionError("derive", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		Zero(derived)
		return nil, NewEncryptionError("derive", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		Zero(derived)
		return nil, NewEncryptionError("derive", err)
	}

	return &Key{id: id, aead: aead, derived: derived}, nil
}

// ID returns the key's identifier.
func (k *Key) ID() string {
	return k.id
}

// Destroy overwrites the derived key bytes. The key must not be used after
// Destroy.
func (k *Key) Destroy() {
	Zero(k.derived)
	k.derived = nil
	k.aead = nil
}

// Zero overwrites b in place.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Keyring manages the set of keys an Engine can use. Exactly one key is
// active for new encryptions; retired keys remain available for decryption
// until removed. All methods are safe for concurrent use.
type Keyring struct {
	mu       sync.RWMutex
	keys     map[string]*Key
	activeID string
}

// NewKeyring creates an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string]*Key)}
}

// Add registers key material under an id. The first key added becomes
// active. The caller keeps ownership of material and may scrub it after Add
// returns; the keyring only retains the derived key.
func (r *Keyring) Add(id string, material []byte) error {
	key, err := newKey(id, material)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.keys[id]; exists {
		key.Destroy()
		return NewEncryptionError("add", fmt.Errorf("key %q already present", id))
	}
	r.keys[id] = key
	if r.activeID == "" {
		r.activeID = id
	}
	return nil
}

// SetActive selects the key used for new encryptions.
func (r *Keyring) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[id]; !ok {
		return &KeyNotFoundError{KeyID: id}
	}
	r.activeID = id
	return nil
}

// Rotate adds a new key and makes it active in one step. Existing keys stay
// in the ring so envelopes written under them remain decryptable.
func (r *Keyring) Rotate(id string, material []byte) error {
	if err := r.Add(id, material); err != nil {
		return err
	}
	return r.SetActive(id)
}

// ActiveID returns the id of the active key, or empty if none is set.
func (r *Keyring) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Len returns the number of keys in the ring.
func (r *Keyring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// active returns the active key.
func (r *Keyring) active() (*Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.activeID == "" {
		return nil, ErrNoActiveKey
	}
	return r.keys[r.activeID], nil
}

// get returns the key with the given id.
func (r *Keyring) get(id string) (*Key, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[id]
	if !ok {
		return nil, &KeyNotFoundError{KeyID: id}
	}
	return key, nil
}

// Close destroys every key in the ring. The keyring must not be used after
// Close.
func (r *Keyring) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range r.keys {
		key.Destroy()
	}
	r.keys = make(map[string]*Key)
	r.activeID = ""
}
