package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	identitysvc "sealchat/internal/services/identity"
	"sealchat/internal/store"
)

// fakeKeyClient is an in-memory key directory.
type fakeKeyClient struct {
	identity           *domain.StoredIdentityKey
	publishErr         error
	registered         []string
	registeredVersions []int
	revoked            []string
	registerErr        error
}

func (f *fakeKeyClient) FetchIdentity(ctx context.Context) (domain.StoredIdentityKey, error) {
	if f.identity == nil {
		return domain.StoredIdentityKey{}, domain.ErrNoIdentity
	}
	return *f.identity, nil
}

func (f *fakeKeyClient) PublishIdentity(ctx context.Context, rec domain.StoredIdentityKey) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.identity = &rec
	return nil
}

func (f *fakeKeyClient) RegisterDevice(ctx context.Context, deviceID string, key domain.X25519Public, keyVersion int) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, deviceID)
	f.registeredVersions = append(f.registeredVersions, keyVersion)
	return nil
}

func (f *fakeKeyClient) RevokeDevice(ctx context.Context, deviceID string) error {
	f.revoked = append(f.revoked, deviceID)
	return nil
}

func (f *fakeKeyClient) FetchDevices(ctx context.Context, userID int64) ([]domain.RecipientDevice, error) {
	return nil, nil
}

func (f *fakeKeyClient) AppendEnvelopes(ctx context.Context, messageID int64, envelopes []domain.MessageEnvelope) error {
	return nil
}

func newService(t *testing.T, keys *fakeKeyClient) (*identitysvc.Service, *store.SessionCache) {
	t.Helper()
	session := store.NewSessionCache()
	svc := identitysvc.New(store.NewFileIdentityStore(t.TempDir()), keys, session, zerolog.Nop())
	return svc, session
}

func TestSetupUnlockScenario(t *testing.T) {
	keys := &fakeKeyClient{}
	svc, session := newService(t, keys)
	ctx := context.Background()

	if svc.State() != identitysvc.StateNoIdentity {
		t.Fatalf("initial state = %v, want StateNoIdentity", svc.State())
	}
	fp, err := svc.Setup(ctx, "correct-horse")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if fp == "" {
		t.Fatal("Setup returned an empty fingerprint")
	}
	if keys.identity == nil {
		t.Fatal("Setup did not publish the identity")
	}
	if svc.State() != identitysvc.StateUnlocked {
		t.Fatalf("state after Setup = %v, want StateUnlocked", svc.State())
	}

	svc.Logout()
	if svc.State() != identitysvc.StateLocked {
		t.Fatalf("state after Logout = %v, want StateLocked", svc.State())
	}
	if _, ok := session.CachedPrivateKey(); ok {
		t.Fatal("private key cached after Logout")
	}

	if err := svc.Unlock(ctx, "correct-horse"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := func() error { svc.Logout(); return svc.Unlock(ctx, "wrong") }(); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("Unlock with wrong password: %v, want ErrInvalidPassword", err)
	}
}

func TestSetupRollsBackOnPublishFailure(t *testing.T) {
	keys := &fakeKeyClient{publishErr: errors.New("directory down")}
	svc, session := newService(t, keys)

	if _, err := svc.Setup(context.Background(), "pw"); err == nil {
		t.Fatal("Setup succeeded despite publish failure")
	}
	if svc.State() != identitysvc.StateNoIdentity {
		t.Fatalf("state = %v, want StateNoIdentity after rollback", svc.State())
	}
	if _, ok := session.CachedPrivateKey(); ok {
		t.Fatal("session unlocked despite failed setup")
	}
}

func TestSetupRefusesSecondIdentity(t *testing.T) {
	svc, _ := newService(t, &fakeKeyClient{})
	if _, err := svc.Setup(context.Background(), "pw"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if _, err := svc.Setup(context.Background(), "pw"); !errors.Is(err, identitysvc.ErrIdentityExists) {
		t.Fatalf("second Setup: %v, want ErrIdentityExists", err)
	}
}

func TestUnlockFetchesRemoteRecord(t *testing.T) {
	keys := &fakeKeyClient{}
	first, _ := newService(t, keys)
	if _, err := first.Setup(context.Background(), "correct-horse"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	// Fresh install: no local record, but the directory has one.
	second, session := newService(t, keys)
	if err := second.Unlock(context.Background(), "correct-horse"); err != nil {
		t.Fatalf("Unlock on fresh install: %v", err)
	}
	if _, ok := session.CachedPrivateKey(); !ok {
		t.Fatal("no cached key after remote unlock")
	}
}

func TestUnlockNoIdentityAnywhere(t *testing.T) {
	svc, _ := newService(t, &fakeKeyClient{})
	if err := svc.Unlock(context.Background(), "pw"); !errors.Is(err, domain.ErrNoIdentity) {
		t.Fatalf("Unlock: %v, want ErrNoIdentity", err)
	}
}

func TestRegisterAndRevokeDevice(t *testing.T) {
	keys := &fakeKeyClient{}
	svc, _ := newService(t, keys)
	ctx := context.Background()

	if err := svc.RegisterDevice(ctx, "dev-1"); !errors.Is(err, domain.ErrNoIdentity) {
		t.Fatalf("RegisterDevice without identity: %v, want ErrNoIdentity", err)
	}
	if _, err := svc.Setup(ctx, "pw"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := svc.RegisterDevice(ctx, "dev-1"); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if len(keys.registered) != 1 || keys.registered[0] != "dev-1" {
		t.Fatalf("registered = %v, want [dev-1]", keys.registered)
	}
	if err := svc.RevokeDevice(ctx, "dev-1"); err != nil {
		t.Fatalf("RevokeDevice: %v", err)
	}
	if len(keys.revoked) != 1 {
		t.Fatalf("revoked = %v, want one entry", keys.revoked)
	}
}

func TestRegisterDevicePublishesKeyVersion(t *testing.T) {
	keys := &fakeKeyClient{}
	session := store.NewSessionCache()
	fs := store.NewFileIdentityStore(t.TempDir())
	svc := identitysvc.New(fs, keys, session, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Setup(ctx, "pw"); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	// Bump the key version while the record format stays where it is;
	// the directory must see the key version.
	rec, ok, err := fs.Load()
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	rec.KeyVersion = 3
	if err := fs.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := svc.RegisterDevice(ctx, "dev-1"); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	if len(keys.registeredVersions) != 1 || keys.registeredVersions[0] != 3 {
		t.Fatalf("directory saw key versions %v, want [3]", keys.registeredVersions)
	}
}

func TestChangePassword(t *testing.T) {
	keys := &fakeKeyClient{}
	svc, _ := newService(t, keys)
	ctx := context.Background()

	if _, err := svc.Setup(ctx, "old-password"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := svc.ChangePassword(ctx, "old-password", "new-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	svc.Logout()
	if err := svc.Unlock(ctx, "old-password"); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("old password still unlocks: %v", err)
	}
	if err := svc.Unlock(ctx, "new-password"); err != nil {
		t.Fatalf("new password unlock: %v", err)
	}
}
