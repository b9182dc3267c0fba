package wallet

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
)

func TestGenerate(t *testing.T) {
	w, err := Generate("test-salt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	pub, err := base58.Decode(w.PublicKey)
	if err != nil {
		t.Fatalf("public key is not base58: %v", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		t.Fatalf("unexpected public key length: %d", len(pub))
	}

	// Private key is base58(seed || pubkey): 64 bytes, with the public
	// key as the second half.
	priv, err := base58.Decode(w.PrivateKey)
	if err != nil {
		t.Fatalf("private key is not base58: %v", err)
	}
	if len(priv) != 64 {
		t.Fatalf("unexpected private key length: %d", len(priv))
	}
	derived := ed25519.NewKeyFromSeed(priv[:32])
	if string(derived.Public().(ed25519.PublicKey)) != string(priv[32:]) {
		t.Fatal("private key halves do not match")
	}
	if string(priv[32:]) != string(pub) {
		t.Fatal("embedded public key does not match wallet public key")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encrypted, err := EncryptPrivateKey("secret-key-material", "salt1")
	if err != nil {
		t.Fatalf("EncryptPrivateKey failed: %v", err)
	}
	if encrypted == "secret-key-material" {
		t.Fatal("encrypted key must not equal plaintext")
	}

	decrypted, err := DecryptPrivateKey(encrypted, "salt1")
	if err != nil {
		t.Fatalf("DecryptPrivateKey failed: %v", err)
	}
	if decrypted != "secret-key-material" {
		t.Fatalf("round trip mismatch: %q", decrypted)
	}
}

func TestDecryptWithWrongSaltFails(t *testing.T) {
	encrypted, err := EncryptPrivateKey("secret-key-material", "salt1")
	if err != nil {
		t.Fatalf("EncryptPrivateKey failed: %v", err)
	}
	if _, err := DecryptPrivateKey(encrypted, "salt2"); err == nil {
		t.Fatal("expected decryption with wrong salt to fail")
	}
}

func TestEncryptionIsRandomized(t *testing.T) {
	a, err := EncryptPrivateKey("secret", "salt1")
	if err != nil {
		t.Fatalf("EncryptPrivateKey failed: %v", err)
	}
	b, err := EncryptPrivateKey("secret", "salt1")
	if err != nil {
		t.Fatalf("EncryptPrivateKey failed: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct ciphertexts for repeated encryption")
	}
}
