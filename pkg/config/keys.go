package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"mercator-hq/vesta/pkg/crypto"
)

// ResolveMaterial returns the decoded key material from whichever source
// the key names: inline hex, a file holding hex, or an environment variable
// holding hex. Exactly one source must be set (enforced by Validate); if
// several are set anyway, inline wins over file over environment.
//
// Returns:
//   - The raw key material, crypto.KeySize bytes. The caller owns the slice
//     and should scrub it once the keyring holds the key.
//   - An error if the source is missing, unreadable, or does not decode to
//     material of the right length.
func (k *KeyConfig) ResolveMaterial() ([]byte, error) {
	switch {
	case k.Material != "":
		return decodeMaterial(k.ID, k.Material)
	case k.MaterialFile != "":
		data, err := os.ReadFile(k.MaterialFile)
		if err != nil {
			return nil, fmt.Errorf("key %q: read material file: %w", k.ID, err)
		}
		return decodeMaterial(k.ID, string(data))
	case k.MaterialEnv != "":
		val := os.Getenv(k.MaterialEnv)
		if val == "" {
			return nil, fmt.Errorf("key %q: environment variable %s is not set", k.ID, k.MaterialEnv)
		}
		return decodeMaterial(k.ID, val)
	default:
		return nil, fmt.Errorf("key %q: no material source configured", k.ID)
	}
}

// decodeMaterial decodes hex key material and checks its length. Error
// messages never include the material itself.
func decodeMaterial(id, s string) ([]byte, error) {
	material, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("key %q: material is not valid hex", id)
	}
	if len(material) != crypto.KeySize {
		crypto.Zero(material)
		return nil, fmt.Errorf("key %q: material must be %d bytes (%d hex characters), got %d bytes",
			id, crypto.KeySize, crypto.KeySize*2, len(material))
	}
	return material, nil
}
