package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"sealchat/internal/domain"
	"sealchat/internal/util/memzero"
)

// hkdfInfo binds derived envelope keys to this protocol.
var hkdfInfo = []byte("sealchat-envelope-v1")

// EncryptForRecipient seals plaintext for a single recipient device. The
// key is derived from the X25519 shared secret between the sender's
// identity private key and the device public key, so the recipient can
// authenticate the sender by deriving the same secret.
func EncryptForRecipient(plaintext []byte, recipientPub domain.X25519Public, senderPriv domain.X25519Private) (payload, nonce []byte, err error) {
	key, err := envelopeKey(senderPriv, recipientPub)
	if err != nil {
		return nil, nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	payload = aead.Seal(nil, nonce, plaintext, nil)
	return payload, nonce, nil
}

// DecryptFromSender opens a payload addressed to recipientPriv. The same
// shared secret is reached from the other side of the DH, so a payload that
// opens proves it was produced by the holder of senderPub's private half.
func DecryptFromSender(payload, nonce []byte, senderPub domain.X25519Public, recipientPriv domain.X25519Private) ([]byte, error) {
	key, err := envelopeKey(recipientPriv, senderPub)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, payload, nil)
}

// envelopeKey derives the per-pair AEAD key: HKDF-SHA256 over the X25519
// shared secret. DH is symmetric, so both directions derive the same key.
func envelopeKey(priv domain.X25519Private, pub domain.X25519Public) ([]byte, error) {
	secret, err := DH(priv, pub)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(secret)

	key := make([]byte, KeyBytes)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, hkdfInfo), key); err != nil {
		return nil, err
	}
	return key, nil
}
