package crypto

import (
	"crypto/rand"
	"crypto/sha256"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"sealchat/internal/domain"
	"sealchat/internal/util/memzero"
)

const (
	// KeyBytes is the size of wrapping keys and identity keys.
	KeyBytes = 32
	// SaltBytes is the size of the PBKDF2 salt stored alongside the
	// wrapped key.
	SaltBytes = 16
	// NonceBytes is the AEAD nonce size.
	NonceBytes = chacha20poly1305.NonceSize

	// DefaultIterations is the PBKDF2 iteration count for new keys.
	// Deliberately expensive; stored per record so it can be raised
	// without invalidating old records.
	DefaultIterations = 150_000
)

// DeriveWrappingKey stretches a password into a symmetric wrapping key
// using PBKDF2-SHA256. CPU-bound by design; run it off any latency-critical
// path.
func DeriveWrappingKey(password string, salt []byte, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return pbkdf2.Key([]byte(password), salt, iterations, KeyBytes, sha256.New)
}

// NewSalt returns a fresh random PBKDF2 salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// EncryptPrivateKey seals the identity private key under the wrapping key
// with ChaCha20-Poly1305 and a random nonce.
func EncryptPrivateKey(priv domain.X25519Private, wrappingKey []byte) (ciphertext, nonce []byte, err error) {
	aead, err := chacha20poly1305.New(wrappingKey)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	ciphertext = aead.Seal(nil, nonce, priv.Slice(), nil)
	return ciphertext, nonce, nil
}

// DecryptPrivateKey opens a wrapped identity private key. It fails closed:
// a wrong password surfaces as domain.ErrInvalidPassword, never as garbage
// plaintext.
func DecryptPrivateKey(ciphertext, nonce, wrappingKey []byte) (domain.X25519Private, error) {
	var priv domain.X25519Private
	aead, err := chacha20poly1305.New(wrappingKey)
	if err != nil {
		return priv, err
	}
	raw, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return priv, domain.ErrInvalidPassword
	}
	if len(raw) != KeyBytes {
		memzero.Zero(raw)
		return priv, domain.ErrInvalidPassword
	}
	copy(priv[:], raw)
	memzero.Zero(raw)
	return priv, nil
}
