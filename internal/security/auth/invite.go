package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// InviteTokenBytes is the entropy of an invite token before hex encoding
const InviteTokenBytes = 32

// GenerateInviteToken returns 32 bytes from crypto/rand, hex-encoded (64 chars).
// The token is the vendor's only credential, so it must be unguessable.
func GenerateInviteToken() (string, error) {
	buf := make([]byte, InviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// LooksLikeInviteToken rejects values that cannot be an issued token, so
// malformed paths never reach the database.
func LooksLikeInviteToken(token string) bool {
	if len(token) != 2*InviteTokenBytes {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
