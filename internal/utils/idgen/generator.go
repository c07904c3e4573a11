package idgen

import (
	"crypto/rand"
	"fmt"
)

const (
	charset = "0123456789abcdefghijklmnopqrstuvwxyz"

	// ConnectionPrefix identifies realtime connections in logs and the room registry.
	ConnectionPrefix = "conn"

	defaultLength = 16
)

// GenerateSecureID generates a cryptographically secure ID with the given prefix and length.
// The random part only uses 0-9 and a-z.
func GenerateSecureID(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}

	encoded := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(encoded) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			// 252 is the largest multiple of 36 below 256; rejecting the rest keeps the distribution uniform.
			if b >= 252 {
				continue
			}
			encoded = append(encoded, charset[b%36])
			if len(encoded) == length {
				break
			}
		}
	}

	return fmt.Sprintf("%s_%s", prefix, string(encoded)), nil
}

// NewConnectionID returns an id for a realtime connection.
func NewConnectionID() (string, error) {
	return GenerateSecureID(ConnectionPrefix, defaultLength)
}
