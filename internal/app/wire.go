package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"sealchat/internal/directory"
	"sealchat/internal/envelope"
	"sealchat/internal/metrics"
	"sealchat/internal/realtime"
	"sealchat/internal/relay"
	identitysvc "sealchat/internal/services/identity"
	"sealchat/internal/services/msgsync"
	"sealchat/internal/services/reencrypt"
	"sealchat/internal/store"
)

// Wire bundles the constructed service graph.
type Wire struct {
	Session   *store.SessionCache
	Keys      *store.FileIdentityStore
	Relay     *relay.Client
	Realtime  *realtime.Client
	Directory *directory.Directory
	Cipher    *envelope.Cipher
	Identity  *identitysvc.Service
	Reencrypt *reencrypt.Coordinator
	Sync      *msgsync.Store
}

// NewWire constructs the dependency graph from cfg. Single-instance
// semantics come from building everything exactly once here and passing
// handles down, not from package-level state.
func NewWire(cfg Config, log zerolog.Logger) *Wire {
	m := metrics.New(prometheus.DefaultRegisterer)

	session := store.NewSessionCache()
	keyStore := store.NewFileIdentityStore(cfg.Home)
	rest := relay.New(cfg.ServerURL, cfg.Token)

	dir := directory.New(rest, session, log)
	cipher := envelope.New(session, m, log)
	identity := identitysvc.New(keyStore, rest, session, log)
	coordinator := reencrypt.New(rest, rest, dir, cipher, cfg.UserID, cfg.DeviceID, cfg.ReencryptLimit, m, log)

	sync := msgsync.New(nil, rest, dir, cipher, cfg.UserID, cfg.DeviceID, m, log,
		msgsync.WithTypingTTL(cfg.TypingTTL))
	rt := realtime.New(cfg.RealtimeURL, cfg.Token, sync, cfg.ReconnectAttempts, log)
	sync.SetOutbound(rt)

	return &Wire{
		Session:   session,
		Keys:      keyStore,
		Relay:     rest,
		Realtime:  rt,
		Directory: dir,
		Cipher:    cipher,
		Identity:  identity,
		Reencrypt: coordinator,
		Sync:      sync,
	}
}
