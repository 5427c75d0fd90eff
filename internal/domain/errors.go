package domain

import "errors"

var (
	// ErrInvalidPassword is returned when an unlock or private-key decrypt
	// fails authentication. User-correctable: prompt again.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrSessionLocked is returned when decryption is attempted without an
	// unlocked session. The caller must prompt for unlock first.
	ErrSessionLocked = errors.New("session locked")

	// ErrNoRecipientDevices aborts encryption when the resolved device list
	// is empty. Nothing was sent; the caller must surface this rather than
	// degrade to plaintext.
	ErrNoRecipientDevices = errors.New("no recipient devices")

	// ErrDirectoryFetchFailed wraps a per-user key-directory failure. It is
	// isolated to that user and retried lazily on next use.
	ErrDirectoryFetchFailed = errors.New("device directory fetch failed")

	// ErrNoIdentity is returned when neither local storage nor the remote
	// directory holds an identity key for this account.
	ErrNoIdentity = errors.New("no identity key registered")

	// ErrOffline is returned when the realtime channel has exhausted its
	// reconnect budget.
	ErrOffline = errors.New("realtime channel offline")
)
