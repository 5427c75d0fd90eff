package crypto

import (
	"crypto/rand"
	"crypto/sha256"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/curve25519"

	"sealchat/internal/domain"
)

// GenerateIdentityKeyPair returns a fresh X25519 identity key pair.
// The private key is clamped per RFC 7748.
func GenerateIdentityKeyPair() (domain.IdentityKeyPair, error) {
	var priv domain.X25519Private
	if _, err := rand.Read(priv[:]); err != nil {
		return domain.IdentityKeyPair{}, err
	}
	clamp(&priv)

	pub, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return domain.IdentityKeyPair{}, err
	}
	kp := domain.IdentityKeyPair{Private: priv}
	copy(kp.Public[:], pub)
	return kp, nil
}

// DH computes the X25519 shared secret between priv and pub.
func DH(priv domain.X25519Private, pub domain.X25519Public) ([]byte, error) {
	return curve25519.X25519(priv.Slice(), pub.Slice())
}

// Fingerprint returns a short base58 digest of the public key for display
// and logging.
func Fingerprint(pub domain.X25519Public) domain.Fingerprint {
	sum := sha256.Sum256(pub[:])
	return domain.Fingerprint(base58.Encode(sum[:10]))
}

func clamp(k *domain.X25519Private) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
