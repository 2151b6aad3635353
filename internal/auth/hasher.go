package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretHasher derives and verifies password digests with bcrypt. The
// digest encodes its own salt and cost, so verification needs no side
// channel.
type SecretHasher struct {
	cost int
}

func NewSecretHasher() *SecretHasher {
	return &SecretHasher{cost: bcrypt.DefaultCost}
}

func (h *SecretHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest
// verifies as false rather than erroring.
func (h *SecretHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
