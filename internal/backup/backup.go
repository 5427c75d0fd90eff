// Package backup exports the identity private key as a BIP-39 recovery
// phrase and restores an identity from one.
package backup

import (
	"errors"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/curve25519"

	"sealchat/internal/domain"
)

// ErrInvalidMnemonic is returned when the recovery phrase fails checksum or
// wordlist validation.
var ErrInvalidMnemonic = errors.New("invalid recovery phrase")

// Mnemonic encodes the identity private key as a 24-word recovery phrase.
// Anyone holding the phrase holds the identity; treat it like the key.
func Mnemonic(kp domain.IdentityKeyPair) (string, error) {
	return bip39.NewMnemonic(kp.Private.Slice())
}

// Restore reconstructs the identity key pair from a recovery phrase. The
// public key is recomputed from the private scalar, so a phrase for a
// different key simply yields a different identity rather than a corrupt
// one.
func Restore(mnemonic string) (domain.IdentityKeyPair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return domain.IdentityKeyPair{}, ErrInvalidMnemonic
	}
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return domain.IdentityKeyPair{}, ErrInvalidMnemonic
	}
	if len(entropy) != 32 {
		return domain.IdentityKeyPair{}, ErrInvalidMnemonic
	}

	var kp domain.IdentityKeyPair
	copy(kp.Private[:], entropy)
	pub, err := curve25519.X25519(kp.Private.Slice(), curve25519.Basepoint)
	if err != nil {
		return domain.IdentityKeyPair{}, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}
