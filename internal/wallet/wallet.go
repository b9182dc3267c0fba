// Package wallet generates Solana keypairs and protects private keys
// at rest with a key derived from the configured salt.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/pbkdf2"
)

const kdfIterations = 100000

// Wallet is a freshly generated keypair. PrivateKey is the base58
// encoding of seed||pubkey, the format wallet apps import.
type Wallet struct {
	PublicKey           string
	PrivateKey          string
	EncryptedPrivateKey string
}

// Generate creates a new ed25519 keypair and encrypts the private key
// with the given salt.
func Generate(salt string) (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	seed := priv.Seed()
	privateKey := base58.Encode(append(append([]byte{}, seed...), pub...))

	encrypted, err := EncryptPrivateKey(privateKey, salt)
	if err != nil {
		return nil, err
	}

	// Round-trip to catch a bad salt before handing out the wallet.
	decrypted, err := DecryptPrivateKey(encrypted, salt)
	if err != nil || decrypted != privateKey {
		return nil, fmt.Errorf("encryption verification failed")
	}

	return &Wallet{
		PublicKey:           base58.Encode(pub),
		PrivateKey:          privateKey,
		EncryptedPrivateKey: encrypted,
	}, nil
}

// deriveKey stretches the salt into a 32-byte AES key.
func deriveKey(salt string) []byte {
	return pbkdf2.Key([]byte(salt), []byte(salt), kdfIterations, 32, sha256.New)
}

// EncryptPrivateKey encrypts a private key with AES-256-GCM using the
// derived key. The nonce is prepended to the ciphertext.
func EncryptPrivateKey(privateKey, salt string) (string, error) {
	block, err := aes.NewCipher(deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(privateKey), nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// DecryptPrivateKey reverses EncryptPrivateKey.
func DecryptPrivateKey(encrypted, salt string) (string, error) {
	data, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted key: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}
	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("encrypted key too short")
	}

	plaintext, err := gcm.Open(nil, data[:gcm.NonceSize()], data[gcm.NonceSize():], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt private key: %w", err)
	}
	return string(plaintext), nil
}
