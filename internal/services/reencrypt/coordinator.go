// Package reencrypt produces additional envelopes for historical messages
// when a chat gains a device that could not read them.
package reencrypt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	"sealchat/internal/envelope"
	"sealchat/internal/metrics"
)

// DefaultHistoryLimit bounds how far back a re-encryption run reaches.
const DefaultHistoryLimit = 50

// Coordinator reacts to "chat gained a recipient device" events. It only
// ever appends envelopes; existing ones are immutable. Concurrent duplicate
// requests for the same (chat, user, device) collapse into one run via an
// in-flight set.
type Coordinator struct {
	history   domain.HistoryFetcher
	appender  domain.EnvelopeAppender
	directory domain.DeviceDirectory
	cipher    *envelope.Cipher

	selfUserID   int64
	selfDeviceID string
	limit        int

	mu       sync.Mutex
	inflight map[string]struct{}

	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New returns a Coordinator re-encrypting on behalf of the given local
// (user, device) pair. limit <= 0 selects DefaultHistoryLimit.
func New(history domain.HistoryFetcher, appender domain.EnvelopeAppender, dir domain.DeviceDirectory, cipher *envelope.Cipher, selfUserID int64, selfDeviceID string, limit int, m *metrics.Metrics, log zerolog.Logger) *Coordinator {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Coordinator{
		history:      history,
		appender:     appender,
		directory:    dir,
		cipher:       cipher,
		selfUserID:   selfUserID,
		selfDeviceID: selfDeviceID,
		limit:        limit,
		inflight:     make(map[string]struct{}),
		metrics:      m,
		log:          log.With().Str("component", "reencrypt").Logger(),
	}
}

// HandleNewRecipient re-encrypts the caller's own recent history of chatID
// for targetUserID. With a non-empty targetDeviceID only that device is
// addressed; otherwise every active device of the user that lacks an
// envelope gets one. A burst of identical notifications does the work once.
//
// Partial success is acceptable: a message that fails to process is logged
// and skipped, and stays unreadable for the new device until retried.
func (c *Coordinator) HandleNewRecipient(ctx context.Context, chatID, targetUserID int64, targetDeviceID string) error {
	key := fmt.Sprintf("%d/%d/%s", chatID, targetUserID, targetDeviceID)
	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return nil
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	// The in-flight key must come out no matter how the run ends, or the
	// dedup entry would stick forever.
	defer func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}()

	// The triggering event means the cached list is stale.
	c.directory.Invalidate(targetUserID)
	devices, err := c.directory.Devices(ctx, targetUserID)
	if err != nil {
		return err
	}
	targets := devices
	if targetDeviceID != "" {
		targets = nil
		for _, dev := range devices {
			if dev.DeviceID == targetDeviceID {
				targets = []domain.RecipientDevice{dev}
				break
			}
		}
	}
	if len(targets) == 0 {
		c.log.Warn().Int64("chat_id", chatID).Int64("user_id", targetUserID).Str("device_id", targetDeviceID).
			Msg("no target devices to re-encrypt for")
		return nil
	}

	page, err := c.history.FetchMessages(ctx, chatID, time.Time{}, c.limit, c.selfDeviceID)
	if err != nil {
		return fmt.Errorf("fetch history for chat %d: %w", chatID, err)
	}

	for i := range page.Messages {
		msg := &page.Messages[i]
		if msg.SenderID != c.selfUserID || !msg.Confirmed() {
			continue
		}
		body, ok := msg.Body.(domain.EncryptedBody)
		if !ok {
			continue
		}
		if err := c.reencryptOne(ctx, msg.ServerID, body.Envelopes, targets); err != nil {
			c.metrics.IncReencryption("skipped")
			c.log.Warn().Int64("chat_id", chatID).Int64("message_id", msg.ServerID).Err(err).
				Msg("re-encryption of message failed, skipping")
			continue
		}
		c.metrics.IncReencryption("ok")
	}
	return nil
}

// reencryptOne derives the plaintext from our own envelope and appends a
// fresh envelope per target device that lacks one.
func (c *Coordinator) reencryptOne(ctx context.Context, messageID int64, existing []domain.MessageEnvelope, targets []domain.RecipientDevice) error {
	missing := make([]domain.RecipientDevice, 0, len(targets))
	for _, dev := range targets {
		if !hasEnvelope(existing, dev) {
			missing = append(missing, dev)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	plaintext, ok, err := c.cipher.DecryptForDevice(existing, c.selfUserID, c.selfDeviceID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no own envelope on message %d", messageID)
	}

	fresh, err := c.cipher.EncryptForRecipients(plaintext, missing, c.selfDeviceID)
	if err != nil {
		return err
	}
	return c.appender.AppendEnvelopes(ctx, messageID, fresh)
}

func hasEnvelope(envelopes []domain.MessageEnvelope, dev domain.RecipientDevice) bool {
	for _, env := range envelopes {
		if env.RecipientID == dev.UserID && env.RecipientDevice == dev.DeviceID {
			return true
		}
	}
	return false
}
