// Package msgsync maintains the authoritative local message cache,
// reconciled from paginated REST history and the realtime event stream.
package msgsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	"sealchat/internal/envelope"
	"sealchat/internal/metrics"
)

const (
	// DefaultPageSize is the history page size requested from the server.
	DefaultPageSize = 30
	// DefaultTypingTTL is how long a typing indicator lives without a stop
	// event.
	DefaultTypingTTL = 3 * time.Second
)

type typingEntry struct {
	username string
	expires  time.Time
}

// chatState holds one chat's ordered messages and indexes. Exactly one
// canonical record exists per message identity: the ClientID and ServerID
// indexes point at the same *Message.
type chatState struct {
	meta     domain.Chat
	messages []*domain.Message // ordered by CreatedAt ascending
	byServer map[int64]*domain.Message
	byClient map[string]*domain.Message
	typing   map[int64]typingEntry
	hasMore  bool
	fetched  bool
}

// Store is the local message/chat cache. All mutation funnels through the
// mutex; events, optimistic sends and pagination merges are idempotent.
type Store struct {
	mu     sync.Mutex
	chats  map[int64]*chatState
	online bool

	outbound  domain.Outbound
	history   domain.HistoryFetcher
	directory domain.DeviceDirectory
	cipher    *envelope.Cipher

	selfUserID   int64
	selfDeviceID string

	pageSize  int
	typingTTL time.Duration
	now       func() time.Time

	metrics *metrics.Metrics
	log     zerolog.Logger
}

// Option tweaks Store construction.
type Option func(*Store)

// WithPageSize overrides the history page size.
func WithPageSize(n int) Option {
	return func(s *Store) { s.pageSize = n }
}

// WithTypingTTL overrides the typing-indicator lifetime.
func WithTypingTTL(d time.Duration) Option {
	return func(s *Store) { s.typingTTL = d }
}

// WithClock overrides the time source. Test seam.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store for the local (user, device) pair.
func New(outbound domain.Outbound, history domain.HistoryFetcher, dir domain.DeviceDirectory, cipher *envelope.Cipher, selfUserID int64, selfDeviceID string, m *metrics.Metrics, log zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		chats:        make(map[int64]*chatState),
		online:       true,
		outbound:     outbound,
		history:      history,
		directory:    dir,
		cipher:       cipher,
		selfUserID:   selfUserID,
		selfDeviceID: selfDeviceID,
		pageSize:     DefaultPageSize,
		typingTTL:    DefaultTypingTTL,
		now:          time.Now,
		metrics:      m,
		log:          log.With().Str("component", "msgsync").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetOutbound wires the realtime channel in after construction; the store
// and the channel hold references to each other.
func (s *Store) SetOutbound(out domain.Outbound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbound = out
}

// TrackChat registers chat metadata. Opening a chat also invalidates the
// participants' device caches so the next encryption sees fresh keys.
func (s *Store) TrackChat(meta domain.Chat, participants ...int64) {
	s.mu.Lock()
	st := s.chat(meta.ID)
	st.meta = meta
	s.mu.Unlock()

	for _, userID := range participants {
		s.directory.Invalidate(userID)
	}
}

// SendMessage authors a message optimistically: it appears in the store
// with Pending set and a fresh ClientID before the server confirms. For
// encrypted chats the plaintext is fanned out to every active recipient
// device plus the sender's own devices; if encryption or the send fails the
// message is marked Failed and the error surfaces to the caller. There is
// no plaintext fallback.
func (s *Store) SendMessage(ctx context.Context, chatID int64, recipients []int64, text string) (domain.Message, error) {
	s.mu.Lock()
	encrypted := s.chat(chatID).meta.Encrypted
	s.mu.Unlock()

	msg := domain.Message{
		ClientID:       uuid.NewString(),
		ChatID:         chatID,
		SenderID:       s.selfUserID,
		SenderDeviceID: s.selfDeviceID,
		CreatedAt:      s.now(),
		Pending:        true,
	}

	if encrypted {
		envs, err := s.encryptFor(ctx, recipients, text)
		if err != nil {
			msg.Failed = true
			msg.Pending = false
			msg.Body = domain.PlaintextBody{Content: text}
			s.insert(msg)
			return msg, err
		}
		msg.Body = domain.EncryptedBody{Envelopes: envs}
	} else {
		msg.Body = domain.PlaintextBody{Content: text}
	}

	s.insert(msg)

	s.mu.Lock()
	out := s.outbound
	online := s.online
	s.mu.Unlock()
	if out == nil || !online {
		s.markFailed(msg.ClientID)
		return msg, domain.ErrOffline
	}
	if err := out.SendChatMessage(ctx, msg); err != nil {
		s.markFailed(msg.ClientID)
		return msg, fmt.Errorf("send message: %w", err)
	}
	return msg, nil
}

// encryptFor resolves devices for all recipients plus the sender's own
// user, then fans the plaintext out. Directory failures for individual
// users are isolated; encryption proceeds for the devices that resolved.
func (s *Store) encryptFor(ctx context.Context, recipients []int64, text string) ([]domain.MessageEnvelope, error) {
	userIDs := append(append([]int64(nil), recipients...), s.selfUserID)
	byUser, errs := s.directory.DevicesForUsers(ctx, userIDs)
	for userID, err := range errs {
		s.log.Warn().Int64("user_id", userID).Err(err).Msg("recipient excluded from envelope fan-out")
	}

	var devices []domain.RecipientDevice
	for _, devs := range byUser {
		devices = append(devices, devs...)
	}
	return s.cipher.EncryptForRecipients([]byte(text), devices, s.selfDeviceID)
}

// Apply folds one realtime event into the store. Applying the same event
// twice is a no-op beyond the first application.
func (s *Store) Apply(ev domain.Event) {
	switch e := ev.(type) {
	case domain.NewMessageEvent:
		s.metrics.IncSyncEvent("new_message")
		s.insert(e.Message)
	case domain.MessageDeletedEvent:
		s.metrics.IncSyncEvent("message_deleted")
		s.applyDeleted(e)
	case domain.TypingEvent:
		s.metrics.IncSyncEvent("typing")
		s.applyTyping(e)
	case domain.StopTypingEvent:
		s.metrics.IncSyncEvent("stop_typing")
		s.applyStopTyping(e)
	case domain.ConnectionEvent:
		s.metrics.IncSyncEvent("connection")
		s.mu.Lock()
		s.online = e.Online
		s.mu.Unlock()
		if !e.Online {
			s.log.Warn().Msg("realtime channel offline")
		}
	}
}

// insert is the single upsert path for optimistic sends, realtime messages
// and paginated history. Identity resolution order: ServerID, then
// ClientID. A confirmation replaces the pending record in place, it never
// duplicates it.
func (s *Store) insert(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.chat(msg.ChatID)

	if msg.ServerID != 0 {
		if existing, ok := st.byServer[msg.ServerID]; ok {
			mergeInto(existing, msg)
			return
		}
	}
	if msg.ClientID != "" {
		if existing, ok := st.byClient[msg.ClientID]; ok {
			// Server confirmation of an optimistic send: same record, same
			// position, now with a canonical identifier.
			mergeInto(existing, msg)
			if existing.ServerID != 0 {
				st.byServer[existing.ServerID] = existing
			}
			return
		}
	}

	fresh := msg
	idx := sort.Search(len(st.messages), func(i int) bool {
		return st.messages[i].CreatedAt.After(fresh.CreatedAt)
	})
	st.messages = append(st.messages, nil)
	copy(st.messages[idx+1:], st.messages[idx:])
	st.messages[idx] = &fresh

	if fresh.ServerID != 0 {
		st.byServer[fresh.ServerID] = &fresh
	}
	if fresh.ClientID != "" {
		st.byClient[fresh.ClientID] = &fresh
	}
}

// mergeInto folds the authoritative copy into the held record while
// preserving local-only state that the server does not echo back.
func mergeInto(dst *domain.Message, src domain.Message) {
	clientID := dst.ClientID
	if src.ClientID == "" {
		src.ClientID = clientID
	}
	if src.ServerID == 0 {
		src.ServerID = dst.ServerID
	}
	if src.Body == nil {
		src.Body = dst.Body
	}
	if src.CreatedAt.IsZero() {
		src.CreatedAt = dst.CreatedAt
	}
	src.Pending = false
	src.Failed = false
	*dst = src
}

func (s *Store) applyDeleted(e domain.MessageDeletedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.chat(e.ChatID)
	msg, ok := st.byServer[e.MessageID]
	if !ok {
		s.log.Debug().Int64("chat_id", e.ChatID).Int64("message_id", e.MessageID).Msg("delete for unknown message")
		return
	}
	deletedAt := e.DeletedAt
	msg.IsDeleted = true
	msg.DeletedAt = &deletedAt
	msg.DeletedBy = e.DeletedBy
	msg.DeletedByName = e.DeletedByName
}

func (s *Store) applyTyping(e domain.TypingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.chat(e.ChatID)
	st.typing[e.UserID] = typingEntry{username: e.Username, expires: s.now().Add(s.typingTTL)}
}

func (s *Store) applyStopTyping(e domain.StopTypingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chat(e.ChatID).typing, e.UserID)
}

// LoadOlder pulls the next older history page. The cursor is the CreatedAt
// of the oldest message currently held; merged messages go through the same
// dedup path as realtime events.
func (s *Store) LoadOlder(ctx context.Context, chatID int64) (more bool, err error) {
	s.mu.Lock()
	st := s.chat(chatID)
	var before time.Time
	if len(st.messages) > 0 {
		before = st.messages[0].CreatedAt
	}
	s.mu.Unlock()

	page, err := s.history.FetchMessages(ctx, chatID, before, s.pageSize, s.selfDeviceID)
	if err != nil {
		return false, fmt.Errorf("load older messages for chat %d: %w", chatID, err)
	}
	for _, msg := range page.Messages {
		s.insert(msg)
	}

	s.mu.Lock()
	st.hasMore = page.HasMore
	st.fetched = true
	s.mu.Unlock()
	return page.HasMore, nil
}

// Messages returns a snapshot of the chat's messages in order.
func (s *Store) Messages(chatID int64) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.chat(chatID)
	out := make([]domain.Message, len(st.messages))
	for i, m := range st.messages {
		out[i] = *m
	}
	return out
}

// HasMore reports whether older pages remain for the chat.
func (s *Store) HasMore(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat(chatID).hasMore
}

// TypingUsers lists users currently typing in the chat. Expired entries
// are dropped lazily here rather than by a background timer.
func (s *Store) TypingUsers(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.chat(chatID)
	now := s.now()
	var names []string
	for userID, entry := range st.typing {
		if now.After(entry.expires) {
			delete(st.typing, userID)
			continue
		}
		names = append(names, entry.username)
	}
	sort.Strings(names)
	return names
}

// Online reports the realtime channel state as last announced.
func (s *Store) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Plaintext resolves the readable content of a message on this device.
// Encrypted messages missing an envelope for the local device return
// ok=false: legitimate until re-encryption catches up, not an error.
func (s *Store) Plaintext(msg domain.Message) (string, bool, error) {
	switch body := msg.Body.(type) {
	case domain.PlaintextBody:
		return body.Content, true, nil
	case domain.EncryptedBody:
		pt, ok, err := s.cipher.DecryptForDevice(body.Envelopes, s.selfUserID, s.selfDeviceID)
		if err != nil || !ok {
			return "", false, err
		}
		return string(pt), true, nil
	default:
		return "", false, nil
	}
}

// chat returns (creating if needed) the state for chatID. Caller holds mu.
func (s *Store) chat(chatID int64) *chatState {
	st, ok := s.chats[chatID]
	if !ok {
		st = &chatState{
			meta:     domain.Chat{ID: chatID},
			byServer: make(map[int64]*domain.Message),
			byClient: make(map[string]*domain.Message),
			typing:   make(map[int64]typingEntry),
		}
		s.chats[chatID] = st
	}
	return st
}

func (s *Store) markFailed(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.chats {
		if msg, ok := st.byClient[clientID]; ok {
			msg.Pending = false
			msg.Failed = true
			return
		}
	}
}

// Compile-time assertion that Store consumes realtime events.
var _ domain.EventSink = (*Store)(nil)
