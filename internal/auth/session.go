package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SessionCookieName is the cookie carrying the raw bearer token.
	SessionCookieName = "board.session"

	// DefaultSessionTTL is the session lifetime when none is configured.
	DefaultSessionTTL = 12 * time.Hour

	// tokenLength is the length of generated bearer tokens in bytes.
	tokenLength = 32
)

// GenerateSessionToken generates a cryptographically secure random bearer
// token. Returns the token (hex string) and its SHA-256 hex hash; only the
// hash is persisted.
func GenerateSessionToken() (string, string, error) {
	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("generate random token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken hashes a bearer token for storage and lookup.
func HashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateSession checks expiry and revocation for a stored session.
func ValidateSession(expiresAt time.Time, revoked bool) error {
	if time.Now().After(expiresAt) {
		return fmt.Errorf("session expired")
	}
	if revoked {
		return fmt.Errorf("session revoked")
	}
	return nil
}
