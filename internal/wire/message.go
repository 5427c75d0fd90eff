// Package wire holds the JSON shapes shared by the REST and realtime
// transports, and their mapping onto domain types.
package wire

import (
	"fmt"
	"time"

	"sealchat/internal/domain"
)

// Message type discriminators on the wire.
const (
	TypeText = "text"
	TypeE2EE = "e2ee"
)

// Message is the transport representation of a chat message. Content and
// Envelopes are mutually exclusive on the wire; the domain model replaces
// them with a tagged body variant.
type Message struct {
	ID             int64  `json:"id,omitempty"`
	LocalID        string `json:"localId,omitempty"`
	ChatID         int64  `json:"chatId"`
	SenderID       int64  `json:"senderId"`
	SenderName     string `json:"senderName,omitempty"`
	SenderDeviceID string `json:"senderDeviceId,omitempty"`

	MessageType string                   `json:"message_type"`
	Content     string                   `json:"content,omitempty"`
	Envelopes   []domain.MessageEnvelope `json:"envelopes,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	SeenAt      *time.Time `json:"seenAt,omitempty"`
	EditedAt    *time.Time `json:"editedAt,omitempty"`

	IsDeleted     bool       `json:"isDeleted,omitempty"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	DeletedBy     int64      `json:"deletedBy,omitempty"`
	DeletedByName string     `json:"deletedByName,omitempty"`

	Reactions   []domain.Reaction     `json:"reactions,omitempty"`
	Attachments []domain.Attachment   `json:"attachments,omitempty"`
	ReplyTo     *domain.ReplyMetadata `json:"replyMetadata,omitempty"`
}

// ToDomain converts a wire message into the domain model.
func (m Message) ToDomain() (domain.Message, error) {
	out := domain.Message{
		ClientID:       m.LocalID,
		ServerID:       m.ID,
		ChatID:         m.ChatID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		SenderDeviceID: m.SenderDeviceID,
		CreatedAt:      m.CreatedAt,
		DeliveredAt:    m.DeliveredAt,
		SeenAt:         m.SeenAt,
		EditedAt:       m.EditedAt,
		IsDeleted:      m.IsDeleted,
		DeletedAt:      m.DeletedAt,
		DeletedBy:      m.DeletedBy,
		DeletedByName:  m.DeletedByName,
		Reactions:      m.Reactions,
		Attachments:    m.Attachments,
		ReplyTo:        m.ReplyTo,
	}
	switch m.MessageType {
	case TypeE2EE:
		out.Body = domain.EncryptedBody{Envelopes: m.Envelopes}
	case TypeText, "":
		// Older servers omit message_type on plaintext messages.
		out.Body = domain.PlaintextBody{Content: m.Content}
	default:
		return domain.Message{}, fmt.Errorf("unknown message_type %q", m.MessageType)
	}
	return out, nil
}

// FromDomain converts a domain message into its wire form.
func FromDomain(m domain.Message) Message {
	out := Message{
		ID:             m.ServerID,
		LocalID:        m.ClientID,
		ChatID:         m.ChatID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		SenderDeviceID: m.SenderDeviceID,
		CreatedAt:      m.CreatedAt,
		DeliveredAt:    m.DeliveredAt,
		SeenAt:         m.SeenAt,
		EditedAt:       m.EditedAt,
		IsDeleted:      m.IsDeleted,
		DeletedAt:      m.DeletedAt,
		DeletedBy:      m.DeletedBy,
		DeletedByName:  m.DeletedByName,
		Reactions:      m.Reactions,
		Attachments:    m.Attachments,
		ReplyTo:        m.ReplyTo,
	}
	switch body := m.Body.(type) {
	case domain.EncryptedBody:
		out.MessageType = TypeE2EE
		out.Envelopes = body.Envelopes
	case domain.PlaintextBody:
		out.MessageType = TypeText
		out.Content = body.Content
	}
	return out
}
