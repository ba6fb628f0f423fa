package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/pkg/errors"
)

const lifecycleTokenLength = 32 // 256 bits

// generateLifecycleToken creates an opaque token for verification and reset
// links. The raw value is emailed once; only the sha256 hex digest is stored.
func generateLifecycleToken() (raw string, hash string, err error) {
	b := make([]byte, lifecycleTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", "", errors.Wrap(err, "[generateLifecycleToken] rand.Read")
	}
	raw = hex.EncodeToString(b)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	digest := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(digest[:])
}

func tokenMatches(raw, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hashToken(raw)), []byte(storedHash)) == 1
}
