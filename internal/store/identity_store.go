package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sealchat/internal/crypto"
	"sealchat/internal/domain"
	"sealchat/internal/util/memzero"
)

const (
	identityFile = "identity_key.json"

	// storedKeyVersion is the current on-disk record format version.
	storedKeyVersion = 1

	// initialKeyVersion is the key pair version assigned at creation.
	initialKeyVersion = 1
)

// FileIdentityStore persists the wrapped identity key as a JSON record in
// the config directory. Safe for concurrent use.
type FileIdentityStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileIdentityStore returns a FileIdentityStore rooted at dir.
func NewFileIdentityStore(dir string) *FileIdentityStore {
	return &FileIdentityStore{dir: dir}
}

// Has reports whether a stored identity record exists.
func (s *FileIdentityStore) Has() bool {
	_, err := os.Stat(s.path())
	return err == nil
}

// Store wraps the private key under a key derived from password and writes
// the record to disk with 0600 permissions.
func (s *FileIdentityStore) Store(kp domain.IdentityKeyPair, password string) (domain.StoredIdentityKey, error) {
	salt, err := crypto.NewSalt()
	if err != nil {
		return domain.StoredIdentityKey{}, err
	}
	wk := crypto.DeriveWrappingKey(password, salt, crypto.DefaultIterations)
	defer memzero.Zero(wk)

	ct, nonce, err := crypto.EncryptPrivateKey(kp.Private, wk)
	if err != nil {
		return domain.StoredIdentityKey{}, err
	}

	// Re-wrapping the same key keeps its version; only a fresh record
	// starts at the initial one.
	keyVersion := initialKeyVersion
	if prev, ok, err := s.Load(); err == nil && ok && prev.KeyVersion > 0 {
		keyVersion = prev.KeyVersion
	}

	rec := domain.StoredIdentityKey{
		PublicKey:           kp.Public,
		EncryptedPrivateKey: ct,
		Nonce:               nonce,
		Salt:                salt,
		Iterations:          crypto.DefaultIterations,
		KeyVersion:          keyVersion,
		Version:             storedKeyVersion,
	}
	if err := s.Save(rec); err != nil {
		return domain.StoredIdentityKey{}, err
	}
	return rec, nil
}

// Unlock loads the record, re-derives the wrapping key from the stored salt
// and iteration count, and decrypts the private key.
func (s *FileIdentityStore) Unlock(password string) (domain.IdentityKeyPair, error) {
	rec, ok, err := s.Load()
	if err != nil {
		return domain.IdentityKeyPair{}, err
	}
	if !ok {
		return domain.IdentityKeyPair{}, domain.ErrNoIdentity
	}
	wk := crypto.DeriveWrappingKey(password, rec.Salt, rec.Iterations)
	defer memzero.Zero(wk)

	priv, err := crypto.DecryptPrivateKey(rec.EncryptedPrivateKey, rec.Nonce, wk)
	if err != nil {
		return domain.IdentityKeyPair{}, err
	}
	return domain.IdentityKeyPair{Public: rec.PublicKey, Private: priv}, nil
}

// Load reads the raw stored record.
func (s *FileIdentityStore) Load() (domain.StoredIdentityKey, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.StoredIdentityKey{}, false, nil
		}
		return domain.StoredIdentityKey{}, false, err
	}
	var rec domain.StoredIdentityKey
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.StoredIdentityKey{}, false, fmt.Errorf("decode identity record: %w", err)
	}
	if rec.Version > storedKeyVersion {
		return domain.StoredIdentityKey{}, false, fmt.Errorf("unsupported identity record version %d", rec.Version)
	}
	return rec, true, nil
}

// Save writes a record to disk, replacing any existing one.
func (s *FileIdentityStore) Save(rec domain.StoredIdentityKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), raw, 0o600)
}

// Delete removes the local record.
func (s *FileIdentityStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileIdentityStore) path() string {
	return filepath.Join(s.dir, identityFile)
}

// Compile-time assertion that FileIdentityStore implements
// domain.IdentityStore.
var _ domain.IdentityStore = (*FileIdentityStore)(nil)
