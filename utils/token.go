package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateOpaqueToken returns a url-safe random token for invite links and
// rotating check-in tokens.
func GenerateOpaqueToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a UUID anyway
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

// NewRequestID returns a unique id attached to audit entries.
func NewRequestID() string {
	return uuid.NewString()
}
