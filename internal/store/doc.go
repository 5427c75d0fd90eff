// Package store persists the password-wrapped identity key on disk and
// holds the in-memory session cache for decrypted key material and
// recipient devices.
package store
