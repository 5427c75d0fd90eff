package domain

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// IdentityKeyPair is the long-lived asymmetric identity of a user. The
// private half never leaves the device unencrypted.
type IdentityKeyPair struct {
	Public  X25519Public
	Private X25519Private
}

// StoredIdentityKey is the persisted, password-wrapped form of an identity
// key pair. It is written both to local durable storage and to the remote
// key-directory service. The private key inside EncryptedPrivateKey is only
// decryptable with the wrapping key derived from Salt and Iterations using
// the password that produced it.
type StoredIdentityKey struct {
	PublicKey           X25519Public `json:"publicKey"`
	EncryptedPrivateKey []byte       `json:"encryptedPrivateKey"`
	Nonce               []byte       `json:"nonce"`
	Salt                []byte       `json:"salt"`
	Iterations          int          `json:"iterations"`
	// KeyVersion counts rotations of the key pair itself. Version is the
	// storage record format; the two move independently.
	KeyVersion int `json:"keyVersion"`
	Version    int `json:"version"`
}

// RecipientDevice is one addressable encryption target: a per-installation
// public key registered against a user identity. A revoked device must never
// appear in an active list.
type RecipientDevice struct {
	UserID     int64        `json:"userId"`
	DeviceID   string       `json:"deviceId"`
	PublicKey  X25519Public `json:"publicKey"`
	KeyVersion int          `json:"keyVersion"`
	Revoked    bool         `json:"revoked,omitempty"`
}
