package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret returns prefix_ followed by 64 random hex characters.
func GenerateSecret(prefix string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	if prefix == "" {
		return hex.EncodeToString(b), nil
	}
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b)), nil
}

// GenerateWebhookSecret generates a signing secret for the SMS gateway webhook.
func GenerateWebhookSecret() (string, error) {
	return GenerateSecret("agl_whsec")
}
