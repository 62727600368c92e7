package auth

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	PurposeProfileCookie = "cpd-portal/profile-cookie"
	PurposeCSRF          = "cpd-portal/csrf"
)

// DeriveKey expands the configured session secret into an independent
// 32-byte key per purpose.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 characters")
	}
	key := make([]byte, 32)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
