// Package cryptutil provides the encryption-at-rest primitive used by the
// projection writer to seal private key material on disk. It never touches
// smartcard seeds: those are never serialized at all (see piv package).
package cryptutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	envelopeVersionPrefix = "v1:"
	saltSize              = 16
	kekSize               = 32

	// Argon2id parameters tuned for an interactive air-gapped operator
	// workflow: one key unwrap per command, not a web login path.
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

// Envelope is the on-disk, ASCII-safe representation of an encrypted
// private-key blob: "v1:" + base64url(salt|nonce|ciphertext).
type Envelope string

// Seal derives a key-encryption-key from passphrase and a fresh random salt
// via Argon2id, then seals plaintext with AES-256-GCM under that key. The
// subject is bound as additional authenticated data so a ciphertext cannot be
// relinked to a different key ID by copying files around.
func Seal(passphrase []byte, subject []byte, plaintext []byte) (Envelope, error) {
	if len(plaintext) == 0 {
		return "", fmt.Errorf("cryptutil: refusing to seal empty plaintext")
	}
	if len(passphrase) == 0 {
		return "", fmt.Errorf("cryptutil: refusing to seal under an empty passphrase")
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptutil: read salt: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cryptutil: read nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, subject)

	buf := make([]byte, 0, saltSize+len(nonce)+len(ciphertext))
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = append(buf, ciphertext...)

	return Envelope(envelopeVersionPrefix + base64.RawURLEncoding.EncodeToString(buf)), nil
}

// Open reverses Seal, returning the original plaintext or an error if the
// passphrase, subject binding or ciphertext has been tampered with.
func Open(passphrase []byte, subject []byte, env Envelope) ([]byte, error) {
	encoded := strings.TrimPrefix(strings.TrimSpace(string(env)), envelopeVersionPrefix)

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("cryptutil: decode envelope: %w", err)
	}
	if len(raw) < saltSize {
		return nil, fmt.Errorf("cryptutil: envelope too short")
	}

	salt := raw[:saltSize]
	rest := raw[saltSize:]

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}
	if len(rest) < aead.NonceSize() {
		return nil, fmt.Errorf("cryptutil: envelope too short")
	}

	nonce := rest[:aead.NonceSize()]
	body := rest[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, body, subject)
	if err != nil {
		return nil, fmt.Errorf("cryptutil: decrypt: %w", err)
	}
	return plaintext, nil
}

func newAEAD(passphrase, salt []byte) (cipher.AEAD, error) {
	kek := argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, kekSize)
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("cryptutil: new cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// ConstantTimeEqual compares two hashes (e.g. PIN/PUK hashes) without leaking
// timing information, used by the smartcard engine's default-credential check.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
