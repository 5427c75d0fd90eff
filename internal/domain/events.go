package domain

import "time"

// Event is a realtime-channel event. The set of variants is closed; the
// realtime client decodes the type-discriminated wire frames into exactly
// these shapes and the sync store dispatches on the concrete type.
type Event interface {
	isEvent()
}

// NewMessageEvent is an inbound message, plaintext or enveloped. The wire
// frames new_message and message_envelope both decode to this variant.
type NewMessageEvent struct {
	Message Message
}

func (NewMessageEvent) isEvent() {}

// MessageDeletedEvent tombstones a message. Deleted messages are never
// physically removed from the store.
type MessageDeletedEvent struct {
	ChatID        int64
	MessageID     int64
	DeletedAt     time.Time
	DeletedBy     int64
	DeletedByName string
}

func (MessageDeletedEvent) isEvent() {}

// TypingEvent marks a user as typing in a chat. Presence is ephemeral and
// expires on its own if no stop event arrives.
type TypingEvent struct {
	ChatID   int64
	UserID   int64
	Username string
}

func (TypingEvent) isEvent() {}

// StopTypingEvent clears a typing indicator.
type StopTypingEvent struct {
	ChatID int64
	UserID int64
}

func (StopTypingEvent) isEvent() {}

// ConnectionEvent reports realtime channel state. Online=false after the
// reconnect budget is exhausted means the caller should surface a
// persistent offline indicator.
type ConnectionEvent struct {
	Online bool
}

func (ConnectionEvent) isEvent() {}
