// Package identity orchestrates identity setup, unlock and device
// registration against the local key store and the remote key directory.
package identity
