package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// MarshalJSON encodes the key as standard base64, matching the wire format
// the key-directory service expects.
func (p X25519Public) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(p[:]))
}

// UnmarshalJSON decodes a base64 string into the key.
func (p *X25519Public) UnmarshalJSON(data []byte) error {
	return unmarshalKey(data, p[:])
}

// MarshalJSON encodes the key as standard base64.
func (k X25519Private) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(k[:]))
}

// UnmarshalJSON decodes a base64 string into the key.
func (k *X25519Private) UnmarshalJSON(data []byte) error {
	return unmarshalKey(data, k[:])
}

func unmarshalKey(data []byte, dst []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("key length %d, want %d", len(raw), len(dst))
	}
	copy(dst, raw)
	return nil
}

// IsZero reports whether the key is all zero bytes.
func (p X25519Public) IsZero() bool {
	return p == X25519Public{}
}
