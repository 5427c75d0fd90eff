// Package crypto exposes the primitives underlying identity keys and
// message envelopes.
//
// Contents
//
//   - X25519 identity key generation and clamping (GenerateIdentityKeyPair)
//   - Password-based wrapping-key derivation with PBKDF2-SHA256
//     (DeriveWrappingKey)
//   - Authenticated wrap/unwrap of the identity private key
//     (EncryptPrivateKey, DecryptPrivateKey)
//   - Sender-authenticated per-device encryption, X25519 + HKDF +
//     ChaCha20-Poly1305 (EncryptForRecipient, DecryptFromSender)
//   - Short base58 public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// All key material uses the fixed-size array types from internal/domain.
// Callers should treat returned secrets as sensitive; intermediate keys are
// wiped with util/memzero before return.
package crypto
