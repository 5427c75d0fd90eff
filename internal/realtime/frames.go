package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"sealchat/internal/domain"
	"sealchat/internal/wire"
)

// Frame type discriminators on the realtime channel.
const (
	frameChatMessage     = "chat_message"
	frameNewMessage      = "new_message"
	frameMessageEnvelope = "message_envelope"
	frameMessageDeleted  = "message_deleted"
	frameTyping          = "typing"
	frameStopTyping      = "stop-typing"
)

type deletedFrame struct {
	ChatID        int64     `json:"chatId"`
	MessageID     int64     `json:"messageId"`
	DeletedAt     time.Time `json:"deletedAt"`
	DeletedBy     int64     `json:"deletedBy"`
	DeletedByName string    `json:"deletedByName"`
}

type typingFrame struct {
	ChatID   int64  `json:"chatId"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

type outboundFrame struct {
	Type string `json:"type"`
	wire.Message
}

// DecodeFrame turns one inbound wire frame into a typed domain event.
// new_message and message_envelope share a shape and both decode to
// NewMessageEvent.
func DecodeFrame(raw []byte) (domain.Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode frame header: %w", err)
	}

	switch head.Type {
	case frameNewMessage, frameMessageEnvelope:
		var wm wire.Message
		if err := json.Unmarshal(raw, &wm); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		msg, err := wm.ToDomain()
		if err != nil {
			return nil, err
		}
		return domain.NewMessageEvent{Message: msg}, nil

	case frameMessageDeleted:
		var f deletedFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode message_deleted: %w", err)
		}
		return domain.MessageDeletedEvent{
			ChatID:        f.ChatID,
			MessageID:     f.MessageID,
			DeletedAt:     f.DeletedAt,
			DeletedBy:     f.DeletedBy,
			DeletedByName: f.DeletedByName,
		}, nil

	case frameTyping:
		var f typingFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode typing: %w", err)
		}
		return domain.TypingEvent{ChatID: f.ChatID, UserID: f.UserID, Username: f.Username}, nil

	case frameStopTyping:
		var f typingFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decode stop-typing: %w", err)
		}
		return domain.StopTypingEvent{ChatID: f.ChatID, UserID: f.UserID}, nil

	default:
		return nil, fmt.Errorf("unknown frame type %q", head.Type)
	}
}

// EncodeChatMessage builds the outbound chat_message frame for a locally
// authored message.
func EncodeChatMessage(msg domain.Message) ([]byte, error) {
	return json.Marshal(outboundFrame{Type: frameChatMessage, Message: wire.FromDomain(msg)})
}
