// Package auth verifies wallet ownership via ed25519 signatures over a
// fixed challenge message.
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// challengePrefix is the fixed text wallets sign during login. The
// caller's public key is appended so a signature cannot be replayed for
// a different identity.
const challengePrefix = "Sign this message for authenticating with SolKit: "

// ChallengeMessage returns the exact message a wallet must sign for the
// given public key.
func ChallengeMessage(publicKey string) string {
	return challengePrefix + publicKey
}

// VerifySignature checks that signature (base64) is a valid ed25519
// signature by publicKey (base58) over the challenge message. A
// malformed key or signature is reported as invalid, not as an error.
func VerifySignature(publicKey, signature string) bool {
	keyBytes, err := base58.Decode(publicKey)
	if err != nil || len(keyBytes) != ed25519.PublicKeySize {
		return false
	}

	sigBytes, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return false
	}

	message := []byte(ChallengeMessage(publicKey))
	return ed25519.Verify(ed25519.PublicKey(keyBytes), message, sigBytes)
}

// SignChallenge signs the challenge message for the given keypair.
// Used by tests and local tooling; the production flow only verifies.
func SignChallenge(priv ed25519.PrivateKey) (publicKey, signature string, err error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return "", "", fmt.Errorf("unexpected public key type")
	}
	publicKey = base58.Encode(pub)
	sig := ed25519.Sign(priv, []byte(ChallengeMessage(publicKey)))
	signature = base64.StdEncoding.EncodeToString(sig)
	return publicKey, signature, nil
}
