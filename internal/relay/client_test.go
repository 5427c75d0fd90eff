package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sealchat/internal/domain"
)

func TestFetchIdentityNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	_, err := c.FetchIdentity(context.Background())
	if !errors.Is(err, domain.ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestFetchDevicesNotFoundIsNotNoIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.FetchDevices(context.Background(), 9)
	if err == nil {
		t.Fatal("expected error for missing user")
	}
	if errors.Is(err, domain.ErrNoIdentity) {
		t.Fatalf("device 404 surfaced as ErrNoIdentity: %v", err)
	}
}

func TestPublishIdentitySendsBearerToken(t *testing.T) {
	var gotAuth string
	var gotRec domain.StoredIdentityKey
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotRec); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := domain.StoredIdentityKey{Iterations: 150_000, Version: 1}
	c := New(srv.URL, "tok")
	if err := c.PublishIdentity(context.Background(), rec); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotRec.Iterations != rec.Iterations || gotRec.Version != rec.Version {
		t.Fatalf("server saw %+v, want %+v", gotRec, rec)
	}
}

func TestFetchMessagesQueryAndDecoding(t *testing.T) {
	before := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/7/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("before") != before.Format(time.RFC3339Nano) {
			t.Errorf("before = %q", q.Get("before"))
		}
		if q.Get("limit") != "30" {
			t.Errorf("limit = %q", q.Get("limit"))
		}
		if q.Get("deviceId") != "dev-a" {
			t.Errorf("deviceId = %q", q.Get("deviceId"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"messages": [
				{"id": 41, "chatId": 7, "senderId": 2, "message_type": "text", "content": "hi", "createdAt": "2025-06-01T11:59:00Z"},
				{"id": 42, "chatId": 7, "senderId": 3, "message_type": "e2ee",
				 "envelopes": [{"recipientId": 1, "recipientDevice": "dev-a", "payload": "Yw==", "nonce": "bg==", "keyVersion": 1, "alg": "x25519-hkdf-chacha20poly1305", "version": 1}],
				 "createdAt": "2025-06-01T11:59:30Z"}
			],
			"hasMore": true
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	page, err := c.FetchMessages(context.Background(), 7, before, 30, "dev-a")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !page.HasMore {
		t.Fatal("expected hasMore")
	}
	if len(page.Messages) != 2 {
		t.Fatalf("got %d messages", len(page.Messages))
	}
	if body, ok := page.Messages[0].Body.(domain.PlaintextBody); !ok || body.Content != "hi" {
		t.Fatalf("message 0 body = %#v", page.Messages[0].Body)
	}
	if body, ok := page.Messages[1].Body.(domain.EncryptedBody); !ok || len(body.Envelopes) != 1 {
		t.Fatalf("message 1 body = %#v", page.Messages[1].Body)
	}
}

func TestFetchMessagesRejectsUnknownType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages": [{"id": 1, "chatId": 7, "senderId": 2, "message_type": "sticker", "createdAt": "2025-06-01T11:59:00Z"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if _, err := c.FetchMessages(context.Background(), 7, time.Time{}, 0, ""); err == nil {
		t.Fatal("expected error for unknown message_type")
	}
}

func TestAppendEnvelopesPostsAdditiveBody(t *testing.T) {
	var got struct {
		MessageID int64                    `json:"messageId"`
		Envelopes []domain.MessageEnvelope `json:"envelopes"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
	}))
	defer srv.Close()

	envs := []domain.MessageEnvelope{{RecipientID: 9, RecipientDevice: "dev-b"}}
	c := New(srv.URL, "")
	if err := c.AppendEnvelopes(context.Background(), 42, envs); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got.MessageID != 42 || len(got.Envelopes) != 1 || got.Envelopes[0].RecipientDevice != "dev-b" {
		t.Fatalf("server saw %+v", got)
	}
}

func TestFetchDevices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/keys/9" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"devices": [{"userId": 9, "deviceId": "dev-a", "keyVersion": 1}, {"userId": 9, "deviceId": "dev-b", "keyVersion": 1, "revoked": true}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	devs, err := c.FetchDevices(context.Background(), 9)
	if err != nil {
		t.Fatalf("fetch devices: %v", err)
	}
	if len(devs) != 2 {
		t.Fatalf("got %d devices", len(devs))
	}
	if !devs[1].Revoked {
		t.Fatal("expected second device revoked")
	}
}
