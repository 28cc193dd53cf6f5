// Package crypto provides authenticated envelope encryption for secret
// configuration values.
//
// Values are sealed with AES-256-GCM under a keyring of named keys. Each
// encryption call draws a fresh random nonce and records the key id in the
// resulting envelope, so historical envelopes stay decryptable after key
// rotation while new writes use the active key. The AES key is derived from
// the configured key material with HKDF-SHA256; raw material never reaches
// the cipher directly.
//
// Key containers scrub their bytes on Destroy, and key material is never
// included in log output or error messages.
package crypto
