package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"sealchat/internal/crypto"
	"sealchat/internal/domain"
)

func makeKeyPair(t *testing.T) domain.IdentityKeyPair {
	t.Helper()
	kp, err := crypto.GenerateIdentityKeyPair()
	if err != nil {
		t.Fatalf("GenerateIdentityKeyPair: %v", err)
	}
	return kp
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	kp := makeKeyPair(t)

	salt, err := crypto.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	// Small iteration count to keep the test fast; the KDF is the same.
	wk := crypto.DeriveWrappingKey("correct-horse", salt, 1000)

	ct, nonce, err := crypto.EncryptPrivateKey(kp.Private, wk)
	if err != nil {
		t.Fatalf("EncryptPrivateKey: %v", err)
	}
	got, err := crypto.DecryptPrivateKey(ct, nonce, wk)
	if err != nil {
		t.Fatalf("DecryptPrivateKey: %v", err)
	}
	if got != kp.Private {
		t.Fatal("round trip did not return the original private key")
	}
}

func TestWrongPasswordFailsClosed(t *testing.T) {
	kp := makeKeyPair(t)

	salt, err := crypto.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	wk := crypto.DeriveWrappingKey("correct-horse", salt, 1000)
	ct, nonce, err := crypto.EncryptPrivateKey(kp.Private, wk)
	if err != nil {
		t.Fatalf("EncryptPrivateKey: %v", err)
	}

	wrong := crypto.DeriveWrappingKey("wrong", salt, 1000)
	if _, err := crypto.DecryptPrivateKey(ct, nonce, wrong); !errors.Is(err, domain.ErrInvalidPassword) {
		t.Fatalf("got %v, want ErrInvalidPassword", err)
	}
}

func TestDeriveWrappingKeyDeterministic(t *testing.T) {
	salt, err := crypto.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	a := crypto.DeriveWrappingKey("p", salt, 1000)
	b := crypto.DeriveWrappingKey("p", salt, 1000)
	if !bytes.Equal(a, b) {
		t.Fatal("same password and salt derived different keys")
	}
	c := crypto.DeriveWrappingKey("p", salt, 2000)
	if bytes.Equal(a, c) {
		t.Fatal("different iteration counts derived the same key")
	}
}

func TestRecipientBoxRoundTrip(t *testing.T) {
	sender := makeKeyPair(t)
	recipient := makeKeyPair(t)

	payload, nonce, err := crypto.EncryptForRecipient([]byte("hi"), recipient.Public, sender.Private)
	if err != nil {
		t.Fatalf("EncryptForRecipient: %v", err)
	}
	pt, err := crypto.DecryptFromSender(payload, nonce, sender.Public, recipient.Private)
	if err != nil {
		t.Fatalf("DecryptFromSender: %v", err)
	}
	if string(pt) != "hi" {
		t.Fatalf("got %q, want %q", pt, "hi")
	}
}

func TestRecipientBoxWrongKeyFails(t *testing.T) {
	sender := makeKeyPair(t)
	recipient := makeKeyPair(t)
	other := makeKeyPair(t)

	payload, nonce, err := crypto.EncryptForRecipient([]byte("hi"), recipient.Public, sender.Private)
	if err != nil {
		t.Fatalf("EncryptForRecipient: %v", err)
	}
	if _, err := crypto.DecryptFromSender(payload, nonce, sender.Public, other.Private); err == nil {
		t.Fatal("decrypt with a different device key succeeded")
	}
}

func TestFingerprintStable(t *testing.T) {
	kp := makeKeyPair(t)
	if crypto.Fingerprint(kp.Public) != crypto.Fingerprint(kp.Public) {
		t.Fatal("fingerprint is not deterministic")
	}
	other := makeKeyPair(t)
	if crypto.Fingerprint(kp.Public) == crypto.Fingerprint(other.Public) {
		t.Fatal("distinct keys share a fingerprint")
	}
}
