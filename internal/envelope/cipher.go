// Package envelope builds and opens per-device message envelopes.
package envelope

import (
	"fmt"

	"github.com/rs/zerolog"

	"sealchat/internal/crypto"
	"sealchat/internal/domain"
	"sealchat/internal/metrics"
	"sealchat/internal/store"
)

// Cipher encrypts outgoing plaintext into one envelope per recipient
// device and decrypts the envelope addressed to the local device. It uses
// the session cache's decrypted identity key; every operation fails with
// domain.ErrSessionLocked while the session is locked.
type Cipher struct {
	session *store.SessionCache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New returns a Cipher over the given session cache.
func New(session *store.SessionCache, m *metrics.Metrics, log zerolog.Logger) *Cipher {
	return &Cipher{
		session: session,
		metrics: m,
		log:     log.With().Str("component", "envelope").Logger(),
	}
}

// EncryptForRecipients seals plaintext once per device. Exactly one
// envelope is produced for every entry in devices; an empty device list is
// an error rather than a silent plaintext send. Revoked devices are the
// directory's job to filter before this point.
func (c *Cipher) EncryptForRecipients(plaintext []byte, devices []domain.RecipientDevice, senderDeviceID string) ([]domain.MessageEnvelope, error) {
	if len(devices) == 0 {
		return nil, domain.ErrNoRecipientDevices
	}
	kp, ok := c.session.KeyPair()
	if !ok {
		return nil, domain.ErrSessionLocked
	}

	envelopes := make([]domain.MessageEnvelope, 0, len(devices))
	for _, dev := range devices {
		payload, nonce, err := crypto.EncryptForRecipient(plaintext, dev.PublicKey, kp.Private)
		if err != nil {
			return nil, fmt.Errorf("encrypt for device %d/%s: %w", dev.UserID, dev.DeviceID, err)
		}
		envelopes = append(envelopes, domain.MessageEnvelope{
			RecipientID:       dev.UserID,
			RecipientDevice:   dev.DeviceID,
			Payload:           payload,
			Nonce:             nonce,
			KeyVersion:        dev.KeyVersion,
			Alg:               domain.EnvelopeAlg,
			SenderIdentityKey: kp.Public,
			SenderDeviceID:    senderDeviceID,
			Version:           domain.EnvelopeVersion,
		})
	}
	c.metrics.AddEncrypted(len(envelopes))
	return envelopes, nil
}

// DecryptForDevice opens the envelope addressed to (userID, deviceID). A
// missing envelope is not an error: the message is simply unreadable on
// this device until re-encryption runs, so ok is false and err is nil.
func (c *Cipher) DecryptForDevice(envelopes []domain.MessageEnvelope, userID int64, deviceID string) (plaintext []byte, ok bool, err error) {
	var env *domain.MessageEnvelope
	for i := range envelopes {
		if envelopes[i].RecipientID == userID && envelopes[i].RecipientDevice == deviceID {
			env = &envelopes[i]
			break
		}
	}
	if env == nil {
		return nil, false, nil
	}

	kp, unlocked := c.session.KeyPair()
	if !unlocked {
		return nil, false, domain.ErrSessionLocked
	}
	pt, err := crypto.DecryptFromSender(env.Payload, env.Nonce, env.SenderIdentityKey, kp.Private)
	if err != nil {
		return nil, false, fmt.Errorf("open envelope for device %s: %w", deviceID, err)
	}
	c.metrics.IncDecrypted()
	return pt, true, nil
}
