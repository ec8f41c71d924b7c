package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateState generates a cryptographically secure random OAuth state value.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
