package domain

import (
	"context"
	"time"
)

// IdentityStore persists the password-wrapped identity key on local durable
// storage and is the single source of truth for "do we have a usable
// identity key locally".
type IdentityStore interface {
	// Has reports whether a stored identity record exists locally.
	Has() bool

	// Store derives a wrapping key from password, encrypts the private key
	// and persists the resulting record.
	Store(kp IdentityKeyPair, password string) (StoredIdentityKey, error)

	// Unlock loads the stored record, re-derives the wrapping key from its
	// salt and iteration count, and decrypts. Fails with
	// ErrInvalidPassword; never returns garbage plaintext.
	Unlock(password string) (IdentityKeyPair, error)

	// Load returns the raw stored record if one exists.
	Load() (StoredIdentityKey, bool, error)

	// Save persists a record obtained elsewhere (for example fetched from
	// the remote directory during unlock on a fresh install).
	Save(rec StoredIdentityKey) error

	// Delete removes the local record. Used to roll back a setup whose
	// remote registration failed.
	Delete() error
}

// KeyClient talks to the remote key-directory service.
type KeyClient interface {
	// FetchIdentity retrieves the account's stored identity key.
	// Returns ErrNoIdentity when none is registered yet.
	FetchIdentity(ctx context.Context) (StoredIdentityKey, error)

	// PublishIdentity registers the wrapped identity key with the
	// directory.
	PublishIdentity(ctx context.Context, rec StoredIdentityKey) error

	// RegisterDevice publishes this installation's device key so other
	// users can address envelopes to it.
	RegisterDevice(ctx context.Context, deviceID string, identityKey X25519Public, keyVersion int) error

	// RevokeDevice marks a device key as revoked in the directory.
	RevokeDevice(ctx context.Context, deviceID string) error

	// FetchDevices lists a user's registered devices, including revoked
	// ones; callers filter.
	FetchDevices(ctx context.Context, userID int64) ([]RecipientDevice, error)

	// AppendEnvelopes adds envelopes to an existing message. Strictly
	// additive; the server never replaces envelopes through this call.
	AppendEnvelopes(ctx context.Context, messageID int64, envelopes []MessageEnvelope) error
}

// MessagePage is one page of paginated chat history.
type MessagePage struct {
	Messages []Message
	HasMore  bool
}

// HistoryFetcher pulls paginated message history for a chat. The cursor is
// the CreatedAt of the oldest message already held; a zero before means
// "latest page".
type HistoryFetcher interface {
	FetchMessages(ctx context.Context, chatID int64, before time.Time, limit int, deviceID string) (MessagePage, error)
}

// EnvelopeAppender is the narrow slice of KeyClient the re-encryption
// coordinator needs.
type EnvelopeAppender interface {
	AppendEnvelopes(ctx context.Context, messageID int64, envelopes []MessageEnvelope) error
}

// DeviceDirectory resolves the active (non-revoked) devices of users.
// DevicesForUsers isolates per-user failures: one unreachable user never
// blocks resolution for the rest.
type DeviceDirectory interface {
	Devices(ctx context.Context, userID int64) ([]RecipientDevice, error)
	DevicesForUsers(ctx context.Context, userIDs []int64) (map[int64][]RecipientDevice, map[int64]error)
	Invalidate(userID int64)
}

// Outbound sends locally authored messages over the realtime channel.
type Outbound interface {
	SendChatMessage(ctx context.Context, msg Message) error
}

// EventSink receives decoded realtime events.
type EventSink interface {
	Apply(ev Event)
}
