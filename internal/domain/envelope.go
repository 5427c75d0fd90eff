package domain

const (
	// EnvelopeAlg names the per-device encryption scheme stamped into every
	// envelope, kept on the wire so the algorithm can rotate without
	// breaking old envelopes.
	EnvelopeAlg = "x25519-hkdf-chacha20poly1305"

	// EnvelopeVersion is the current envelope wire format version.
	EnvelopeVersion = 1
)

// MessageEnvelope is one recipient-device-scoped ciphertext unit derived
// from a single plaintext message. Envelopes are immutable once created;
// re-encryption for a new device appends additional envelopes, it never
// rewrites existing ones.
type MessageEnvelope struct {
	RecipientID       int64        `json:"recipientId"`
	RecipientDevice   string       `json:"recipientDevice"`
	Payload           []byte       `json:"payload"`
	Nonce             []byte       `json:"nonce"`
	KeyVersion        int          `json:"keyVersion"`
	Alg               string       `json:"alg"`
	SenderIdentityKey X25519Public `json:"senderIdentityKey"`
	SenderDeviceID    string       `json:"senderDeviceId"`
	Version           int          `json:"version"`
}
