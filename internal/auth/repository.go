package auth

import (
	"context"

	"github.com/ekinyurt/auth-service/internal/models"
	"github.com/google/uuid"
)

// UserRepository abstracts user persistence. Implementations return
// ErrNotFound when no record matches and ErrConflict when a save violates
// a uniqueness constraint (email, or provider + external id).
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByExternalID(ctx context.Context, provider, externalID string) (*models.User, error)
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	// Save inserts or updates.
	Save(ctx context.Context, user *models.User) error
}

// Notifier delivers a message out-of-band. The authority only produces the
// subject and body; transport is the implementation's concern.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
