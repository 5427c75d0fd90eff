package realtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	"sealchat/internal/realtime"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordingSink) Apply(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) all() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func TestRunExhaustedBudgetGoesOffline(t *testing.T) {
	sink := &recordingSink{}
	// Port 1 refuses connections immediately, so the small budget drains
	// fast.
	c := realtime.New("ws://127.0.0.1:1/ws", "", sink, 2, zerolog.Nop())

	err := c.Run(context.Background())
	if !errors.Is(err, domain.ErrOffline) {
		t.Fatalf("Run = %v, want ErrOffline", err)
	}

	evs := sink.all()
	if len(evs) == 0 {
		t.Fatal("no events delivered to sink")
	}
	last, ok := evs[len(evs)-1].(domain.ConnectionEvent)
	if !ok || last.Online {
		t.Fatalf("last event = %#v, want ConnectionEvent{Online:false}", evs[len(evs)-1])
	}
}

func TestSendChatMessageWhileDisconnected(t *testing.T) {
	c := realtime.New("ws://127.0.0.1:1/ws", "", &recordingSink{}, 1, zerolog.Nop())

	if c.Connected() {
		t.Fatal("Connected before any dial")
	}
	err := c.SendChatMessage(context.Background(), domain.Message{ChatID: 1, ClientID: "c1"})
	if !errors.Is(err, domain.ErrOffline) {
		t.Fatalf("SendChatMessage = %v, want ErrOffline", err)
	}
}
