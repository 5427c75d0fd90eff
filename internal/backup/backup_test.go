package backup_test

import (
	"errors"
	"strings"
	"testing"

	"sealchat/internal/backup"
	"sealchat/internal/crypto"
)

func TestMnemonicRoundTrip(t *testing.T) {
	kp, err := crypto.GenerateIdentityKeyPair()
	if err != nil {
		t.Fatalf("GenerateIdentityKeyPair: %v", err)
	}
	phrase, err := backup.Mnemonic(kp)
	if err != nil {
		t.Fatalf("Mnemonic: %v", err)
	}
	if words := strings.Fields(phrase); len(words) != 24 {
		t.Fatalf("phrase has %d words, want 24", len(words))
	}

	restored, err := backup.Restore(phrase)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored != kp {
		t.Fatal("restored key pair differs from the original")
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	if _, err := backup.Restore("not a real phrase at all"); !errors.Is(err, backup.ErrInvalidMnemonic) {
		t.Fatalf("got %v, want ErrInvalidMnemonic", err)
	}
}
