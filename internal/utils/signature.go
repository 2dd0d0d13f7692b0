package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePrefix is the scheme tag the SMS gateway puts before the hex digest.
const SignaturePrefix = "sha256="

// GenerateSignature returns the HMAC-SHA256 of payload as lowercase hex.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// CheckSignature validates a signature header value over payload. It
// returns ErrMissingSignature for an empty header and ErrInvalidSignature
// for a mismatch.
func CheckSignature(payload []byte, signature, secret string) error {
	if strings.TrimSpace(signature) == "" {
		return ErrMissingSignature
	}
	if !VerifySignature(payload, signature, secret) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifySignature checks a "sha256=<hex>" or bare hex signature over payload
// in constant time.
func VerifySignature(payload []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	signature = strings.TrimPrefix(signature, SignaturePrefix)
	expected := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}
