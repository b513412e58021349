package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// RandomHex returns n random bytes encoded as hex.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewSessionID builds an opaque session identifier of the form
// <prefix>_<unix millis>_<32 hex chars>.
func NewSessionID(prefix string, now time.Time) (string, error) {
	suffix, err := RandomHex(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix), nil
}
