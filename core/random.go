package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const randomByteLength = 32

// RandomState produces a cryptographically random, URL-safe anti-forgery
// token for the authorize request's `state` parameter.
func RandomState() (string, error) {
	return randomURLSafe(randomByteLength)
}

// RandomVerifier produces a PKCE code verifier. The verifier never leaves the
// process; only its S256 challenge is transmitted.
func RandomVerifier() (string, error) {
	return randomURLSafe(randomByteLength)
}

// Challenge derives the S256 code challenge for a verifier:
// BASE64URL(SHA256(verifier)), unpadded.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func randomURLSafe(size int) (string, error) {
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate random value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
