package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sealchat/internal/domain"
	"sealchat/internal/wire"
)

// errNotFound marks a 404 response. Only FetchIdentity gives it domain
// meaning.
var errNotFound = errors.New("not found")

// Client talks to the key-directory and chat REST endpoints.
type Client struct {
	Base  string
	Token string
	HTTP  *http.Client
}

// New returns a Client for the given base URL.
func New(base, token string) *Client {
	return &Client{Base: base, Token: token, HTTP: http.DefaultClient}
}

// FetchIdentity retrieves the account's wrapped identity key.
// A 404 here, and only here, means no identity key is registered.
func (c *Client) FetchIdentity(ctx context.Context) (domain.StoredIdentityKey, error) {
	var out domain.StoredIdentityKey
	err := c.getJSON(ctx, "/keys/identity", &out)
	if errors.Is(err, errNotFound) {
		return domain.StoredIdentityKey{}, domain.ErrNoIdentity
	}
	if err != nil {
		return domain.StoredIdentityKey{}, err
	}
	return out, nil
}

// PublishIdentity registers the wrapped identity key with the directory.
func (c *Client) PublishIdentity(ctx context.Context, rec domain.StoredIdentityKey) error {
	return c.post(ctx, "/keys/identity", rec, nil)
}

// RegisterDevice publishes a device key.
func (c *Client) RegisterDevice(ctx context.Context, deviceID string, identityKey domain.X25519Public, keyVersion int) error {
	return c.post(ctx, "/keys/register", struct {
		DeviceID    string              `json:"deviceId"`
		IdentityKey domain.X25519Public `json:"identityKey"`
		KeyVersion  int                 `json:"keyVersion"`
	}{deviceID, identityKey, keyVersion}, nil)
}

// RevokeDevice marks a device key as revoked.
func (c *Client) RevokeDevice(ctx context.Context, deviceID string) error {
	return c.post(ctx, "/keys/revoke", struct {
		DeviceID string `json:"deviceId"`
	}{deviceID}, nil)
}

// FetchDevices lists a user's registered devices, revoked ones included.
func (c *Client) FetchDevices(ctx context.Context, userID int64) ([]domain.RecipientDevice, error) {
	var out struct {
		Devices []domain.RecipientDevice `json:"devices"`
	}
	if err := c.getJSON(ctx, "/keys/"+strconv.FormatInt(userID, 10), &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

// AppendEnvelopes adds envelopes to an existing message. The server treats
// this as strictly additive.
func (c *Client) AppendEnvelopes(ctx context.Context, messageID int64, envelopes []domain.MessageEnvelope) error {
	return c.post(ctx, "/keys/envelopes", struct {
		MessageID int64                    `json:"messageId"`
		Envelopes []domain.MessageEnvelope `json:"envelopes"`
	}{messageID, envelopes}, nil)
}

// FetchMessages pulls one page of chat history. A zero before means the
// latest page.
func (c *Client) FetchMessages(ctx context.Context, chatID int64, before time.Time, limit int, deviceID string) (domain.MessagePage, error) {
	q := url.Values{}
	if !before.IsZero() {
		q.Set("before", before.UTC().Format(time.RFC3339Nano))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if deviceID != "" {
		q.Set("deviceId", deviceID)
	}
	path := fmt.Sprintf("/chat/%d/messages", chatID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var raw struct {
		Messages []wire.Message `json:"messages"`
		HasMore  bool           `json:"hasMore"`
	}
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return domain.MessagePage{}, err
	}
	page := domain.MessagePage{HasMore: raw.HasMore}
	for _, wm := range raw.Messages {
		m, err := wm.ToDomain()
		if err != nil {
			return domain.MessagePage{}, fmt.Errorf("chat %d: %w", chatID, err)
		}
		page.Messages = append(page.Messages, m)
	}
	return page, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", errNotFound, req.Method, path)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%s %s: %s", req.Method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Compile-time assertions for the interfaces the services consume.
var (
	_ domain.KeyClient      = (*Client)(nil)
	_ domain.HistoryFetcher = (*Client)(nil)
)
