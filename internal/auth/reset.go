package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ekinyurt/auth-service/internal/models"
)

// ResetTokenManager issues and consumes one-time password-reset tokens.
// Only the SHA-256 of a token is ever persisted; the plaintext goes to the
// caller for out-of-band delivery and is gone after that.
type ResetTokenManager struct {
	users  UserRepository
	hasher *SecretHasher
	ttl    time.Duration
}

func NewResetTokenManager(users UserRepository, hasher *SecretHasher, ttl time.Duration) *ResetTokenManager {
	return &ResetTokenManager{users: users, hasher: hasher, ttl: ttl}
}

// Issue generates a fresh reset token for the user, overwriting any prior
// pending token, and returns the plaintext. The previous plaintext becomes
// unverifiable the moment this persists.
func (m *ResetTokenManager) Issue(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	// Unpadded so the token can sit in a URL path segment.
	rawToken := base64.RawURLEncoding.EncodeToString(rawBytes)

	tokenHash := HashResetToken(rawToken)
	expiry := time.Now().Add(m.ttl)
	user.ResetTokenHash = &tokenHash
	user.ResetTokenExpiry = &expiry

	if err := m.users.Save(ctx, user); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return rawToken, nil
}

// Consume redeems a reset token and installs the new password. Wrong,
// already-consumed and expired tokens all fail with the same
// ErrInvalidOrExpiredToken so the response never reveals which it was.
func (m *ResetTokenManager) Consume(ctx context.Context, rawToken, newPassword string) error {
	user, err := m.users.FindByResetTokenHash(ctx, HashResetToken(rawToken))
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
		return ErrInvalidOrExpiredToken
	}

	digest, err := m.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	user.PasswordHash = &digest
	user.PasswordChangedAt = &now
	user.ResetTokenHash = nil
	user.ResetTokenExpiry = nil

	if err := m.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Clear removes a pending reset token. Callers use this to compensate when
// delivery fails after Issue already persisted the token, so no dangling
// unusable grant is left behind.
func (m *ResetTokenManager) Clear(ctx context.Context, user *models.User) error {
	user.ResetTokenHash = nil
	user.ResetTokenExpiry = nil
	return m.users.Save(ctx, user)
}

// HashResetToken returns the hex SHA-256 digest stored in place of the
// plaintext token.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
