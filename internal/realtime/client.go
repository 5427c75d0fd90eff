// Package realtime maintains the websocket push channel: it decodes the
// type-discriminated event frames into domain events for the sync store and
// carries outbound chat messages.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sealchat/internal/domain"
)

// DefaultMaxAttempts bounds reconnects per outage before the channel is
// declared offline.
const DefaultMaxAttempts = 8

// Client is the realtime channel. Run owns the read loop; SendChatMessage
// may be called from any goroutine.
type Client struct {
	url   string
	token string
	sink  domain.EventSink
	log   zerolog.Logger

	maxAttempts uint64

	mu   sync.Mutex
	conn *websocket.Conn
}

// New returns a Client that will deliver decoded events to sink.
func New(url, token string, sink domain.EventSink, maxAttempts int, log zerolog.Logger) *Client {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Client{
		url:         url,
		token:       token,
		sink:        sink,
		maxAttempts: uint64(maxAttempts),
		log:         log.With().Str("component", "realtime").Logger(),
	}
}

// Run connects and pumps events until ctx is cancelled or the reconnect
// budget runs out. On exhaustion the sink is told the channel is offline
// and ErrOffline is returned; the caller decides whether to start over.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.connect(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.sink.Apply(domain.ConnectionEvent{Online: false})
			return fmt.Errorf("%w: %v", domain.ErrOffline, err)
		}
		c.sink.Apply(domain.ConnectionEvent{Online: true})

		err := c.readLoop(ctx)
		c.closeConn()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("realtime connection lost, reconnecting")
	}
}

// connect dials with exponential backoff, bounded by the attempt budget.
func (c *Client) connect(ctx context.Context) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxAttempts),
		ctx,
	)
	return backoff.Retry(func() error {
		header := http.Header{}
		if c.token != "" {
			header.Set("Authorization", "Bearer "+c.token)
		}
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, header)
		if err != nil {
			c.log.Debug().Err(err).Msg("dial failed")
			return err
		}
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()
		return nil
	}, policy)
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := c.currentConn().ReadMessage()
		if err != nil {
			return err
		}
		ev, err := DecodeFrame(raw)
		if err != nil {
			// A malformed or unknown frame is the server's bug, not a
			// reason to drop the connection.
			c.log.Warn().Err(err).Msg("skipping undecodable frame")
			continue
		}
		c.sink.Apply(ev)
	}
}

// SendChatMessage writes an outbound chat_message frame. Fails with
// ErrOffline while disconnected.
func (c *Client) SendChatMessage(ctx context.Context, msg domain.Message) error {
	raw, err := EncodeChatMessage(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return domain.ErrOffline
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	}
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// Connected reports whether the websocket is currently established.
func (c *Client) Connected() bool {
	return c.currentConn() != nil
}

func (c *Client) currentConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Compile-time assertion that Client carries outbound messages.
var _ domain.Outbound = (*Client)(nil)
