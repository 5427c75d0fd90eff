package store

import (
	"sync"

	"sealchat/internal/domain"
	"sealchat/internal/util/memzero"
)

// SessionCache holds process-lifetime state for an unlocked session: the
// decrypted identity private key and the per-user recipient-device map.
// Nothing in here is ever persisted; Clear is the only way decrypted key
// material disappears short of process exit.
type SessionCache struct {
	mu       sync.RWMutex
	unlocked bool
	keyPair  domain.IdentityKeyPair
	devices  map[int64][]domain.RecipientDevice
}

// NewSessionCache returns an empty, locked cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{devices: make(map[int64][]domain.RecipientDevice)}
}

// SetKeyPair caches the decrypted identity key pair for the session.
func (c *SessionCache) SetKeyPair(kp domain.IdentityKeyPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyPair = kp
	c.unlocked = true
}

// KeyPair returns the cached identity key pair if the session is unlocked.
func (c *SessionCache) KeyPair() (domain.IdentityKeyPair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyPair, c.unlocked
}

// CachedPrivateKey returns the decrypted private key if the session is
// unlocked.
func (c *SessionCache) CachedPrivateKey() (domain.X25519Private, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyPair.Private, c.unlocked
}

// Unlocked reports whether a decrypted key is cached.
func (c *SessionCache) Unlocked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unlocked
}

// SetDevices replaces the cached device list for a user.
func (c *SessionCache) SetDevices(userID int64, devices []domain.RecipientDevice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devices[userID] = devices
}

// Devices returns the cached device list for a user.
func (c *SessionCache) Devices(userID int64) ([]domain.RecipientDevice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.devices[userID]
	return d, ok
}

// DropDevices removes a user's cached device list.
func (c *SessionCache) DropDevices(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.devices, userID)
}

// Clear wipes the cached key material and device map. Called on logout and
// lock.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	memzero.Zero(c.keyPair.Private[:])
	memzero.Zero(c.keyPair.Public[:])
	c.keyPair = domain.IdentityKeyPair{}
	c.unlocked = false
	c.devices = make(map[int64][]domain.RecipientDevice)
}
