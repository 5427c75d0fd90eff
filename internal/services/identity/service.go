package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"sealchat/internal/crypto"
	"sealchat/internal/domain"
	"sealchat/internal/store"
)

// State describes where the identity lifecycle currently stands.
type State int

const (
	// StateNoIdentity means no local encrypted record exists; the account
	// either needs Setup or an Unlock that pulls the record from the
	// directory.
	StateNoIdentity State = iota
	// StateLocked means an encrypted record exists locally but no
	// decrypted key is cached.
	StateLocked
	// StateUnlocked means the session cache holds the decrypted key.
	StateUnlocked
)

// ErrIdentityExists is returned when Setup is called on an account that
// already has a local identity. Identities are created once; password
// change and device revocation are the only paths that invalidate one.
var ErrIdentityExists = errors.New("identity already exists")

// Service drives the identity lifecycle: NoIdentity -> (Setup | Unlock) ->
// Unlocked, and back to Locked on logout.
type Service struct {
	mu      sync.Mutex
	store   domain.IdentityStore
	keys    domain.KeyClient
	session *store.SessionCache
	log     zerolog.Logger
}

// New returns an identity service over the given store, directory client
// and session cache.
func New(idStore domain.IdentityStore, keys domain.KeyClient, session *store.SessionCache, log zerolog.Logger) *Service {
	return &Service{
		store:   idStore,
		keys:    keys,
		session: session,
		log:     log.With().Str("component", "identity").Logger(),
	}
}

// State reports the current lifecycle state.
func (s *Service) State() State {
	if s.session.Unlocked() {
		return StateUnlocked
	}
	if s.store.Has() {
		return StateLocked
	}
	return StateNoIdentity
}

// Setup generates a fresh identity key pair, persists it wrapped under
// password, and registers it with the remote directory. Atomic from the
// caller's perspective: if remote registration fails, the local record is
// removed again so the account never looks "registered" when it is not.
func (s *Service) Setup(ctx context.Context, password string) (domain.Fingerprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Has() {
		return "", ErrIdentityExists
	}
	kp, err := crypto.GenerateIdentityKeyPair()
	if err != nil {
		return "", err
	}
	rec, err := s.store.Store(kp, password)
	if err != nil {
		return "", err
	}
	if err := s.keys.PublishIdentity(ctx, rec); err != nil {
		if rollbackErr := s.store.Delete(); rollbackErr != nil {
			s.log.Error().Err(rollbackErr).Msg("rollback of local identity failed")
		}
		return "", fmt.Errorf("register identity: %w", err)
	}
	s.session.SetKeyPair(kp)
	fp := crypto.Fingerprint(kp.Public)
	s.log.Info().Str("fingerprint", fp.String()).Msg("identity created")
	return fp, nil
}

// Unlock decrypts the identity with password and caches it for the
// session. The local record is tried first; on a fresh install the record
// is fetched from the directory, persisted, then decrypted.
func (s *Service) Unlock(ctx context.Context, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Has() {
		rec, err := s.keys.FetchIdentity(ctx)
		if err != nil {
			return fmt.Errorf("fetch identity from directory: %w", err)
		}
		if err := s.store.Save(rec); err != nil {
			return err
		}
		s.log.Info().Msg("identity record restored from directory")
	}
	kp, err := s.store.Unlock(password)
	if err != nil {
		return err
	}
	s.session.SetKeyPair(kp)
	return nil
}

// RegisterDevice publishes this installation's device key so other users'
// device fetches can find it.
func (s *Service) RegisterDevice(ctx context.Context, deviceID string) error {
	rec, ok, err := s.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNoIdentity
	}
	if err := s.keys.RegisterDevice(ctx, deviceID, rec.PublicKey, rec.KeyVersion); err != nil {
		return fmt.Errorf("register device %s: %w", deviceID, err)
	}
	s.log.Info().Str("device_id", deviceID).Msg("device registered")
	return nil
}

// RevokeDevice marks a device as revoked in the directory. Other clients
// stop encrypting to it on their next device fetch.
func (s *Service) RevokeDevice(ctx context.Context, deviceID string) error {
	if err := s.keys.RevokeDevice(ctx, deviceID); err != nil {
		return fmt.Errorf("revoke device %s: %w", deviceID, err)
	}
	s.log.Info().Str("device_id", deviceID).Msg("device revoked")
	return nil
}

// ChangePassword re-wraps the private key under a new password and pushes
// the updated record to the directory. The previous record is restored
// locally if the remote update fails.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok, err := s.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNoIdentity
	}
	kp, err := s.store.Unlock(oldPassword)
	if err != nil {
		return err
	}
	rec, err := s.store.Store(kp, newPassword)
	if err != nil {
		return err
	}
	if err := s.keys.PublishIdentity(ctx, rec); err != nil {
		if restoreErr := s.store.Save(prev); restoreErr != nil {
			s.log.Error().Err(restoreErr).Msg("restore of previous identity record failed")
		}
		return fmt.Errorf("publish rewrapped identity: %w", err)
	}
	s.session.SetKeyPair(kp)
	s.log.Info().Msg("identity password changed")
	return nil
}

// Logout clears the session cache. The encrypted record stays on disk, so
// the next state is Locked rather than NoIdentity.
func (s *Service) Logout() {
	s.session.Clear()
	s.log.Info().Msg("session cleared")
}
