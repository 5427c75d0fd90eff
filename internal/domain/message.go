package domain

import "time"

// MessageBody is the content of a message: either plaintext (unencrypted
// chat mode) or a set of per-device envelopes. Modelling this as a closed
// variant keeps "which field is populated" decisions out of call sites.
type MessageBody interface {
	isMessageBody()
}

// PlaintextBody carries unencrypted content.
type PlaintextBody struct {
	Content string `json:"content"`
}

func (PlaintextBody) isMessageBody() {}

// EncryptedBody carries one envelope per recipient device.
type EncryptedBody struct {
	Envelopes []MessageEnvelope `json:"envelopes"`
}

func (EncryptedBody) isMessageBody() {}

// Reaction is a single emoji reaction on a message.
type Reaction struct {
	UserID int64  `json:"userId"`
	Emoji  string `json:"emoji"`
}

// Attachment references an uploaded file. Storage and transfer of the
// content itself is out of scope here.
type Attachment struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// ReplyMetadata points at the message being replied to.
type ReplyMetadata struct {
	MessageID  int64  `json:"messageId"`
	SenderName string `json:"senderName"`
	Preview    string `json:"preview"`
}

// Message is a chat-scoped record. Identity is two-phase: ClientID is
// assigned locally at creation and never changes; ServerID arrives with the
// server's confirmation. The sync store keys on ClientID until ServerID
// exists, then indexes both.
type Message struct {
	ClientID string `json:"localId"`
	ServerID int64  `json:"id,omitempty"`

	ChatID         int64  `json:"chatId"`
	SenderID       int64  `json:"senderId"`
	SenderName     string `json:"senderName,omitempty"`
	SenderDeviceID string `json:"senderDeviceId,omitempty"`

	Body MessageBody `json:"-"`

	CreatedAt   time.Time  `json:"createdAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	SeenAt      *time.Time `json:"seenAt,omitempty"`
	EditedAt    *time.Time `json:"editedAt,omitempty"`

	IsDeleted     bool       `json:"isDeleted,omitempty"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	DeletedBy     int64      `json:"deletedBy,omitempty"`
	DeletedByName string     `json:"deletedByName,omitempty"`

	Reactions   []Reaction     `json:"reactions,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	ReplyTo     *ReplyMetadata `json:"replyMetadata,omitempty"`

	// Local-only state, never sent to the server.
	Pending bool `json:"-"`
	Failed  bool `json:"-"`
}

// Confirmed reports whether the server has assigned a canonical identifier.
func (m *Message) Confirmed() bool { return m.ServerID != 0 }

// Chat is the metadata the sync store keeps per conversation.
type Chat struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Encrypted bool   `json:"encrypted"`
	// HasMore reports whether older pages remain on the server.
	HasMore bool `json:"-"`
}
