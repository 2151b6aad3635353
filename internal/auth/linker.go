package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ekinyurt/auth-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Profile is the identity a provider asserted about the user.
type Profile struct {
	Provider   string
	ExternalID string
	Email      string
	Name       string
	// Raw is the provider's profile payload as returned, kept for later
	// inspection.
	Raw []byte
}

// OAuthIdentityLinker resolves an external identity assertion to a local
// account, creating or updating it. Re-login is idempotent: only the
// last-seen provider tokens change.
type OAuthIdentityLinker struct {
	users UserRepository
}

func NewOAuthIdentityLinker(users UserRepository) *OAuthIdentityLinker {
	return &OAuthIdentityLinker{users: users}
}

// Resolve returns the local user for the asserted identity. Concurrent
// first logins for the same external id race on the insert; the loser hits
// the repository's uniqueness constraint and retries as lookup-then-update,
// so exactly one user survives.
func (l *OAuthIdentityLinker) Resolve(ctx context.Context, profile Profile, accessToken, refreshToken string) (*models.User, error) {
	user, err := l.users.FindByExternalID(ctx, profile.Provider, profile.ExternalID)
	switch {
	case err == nil:
		return l.refresh(ctx, user, profile, accessToken, refreshToken)
	case errors.Is(err, ErrNotFound):
		// fall through to create
	default:
		return nil, fmt.Errorf("failed to look up external identity: %w", err)
	}

	user = &models.User{
		ID:                   uuid.New(),
		Email:                strings.ToLower(profile.Email),
		Name:                 profile.Name,
		Provider:             &profile.Provider,
		ExternalID:           &profile.ExternalID,
		ExternalAccessToken:  &accessToken,
		ExternalRefreshToken: &refreshToken,
		ExternalProfile:      datatypes.JSON(profile.Raw),
	}

	err = l.users.Save(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, fmt.Errorf("failed to create user from external identity: %w", err)
	}

	// Lost a race on the external id, or the email already belongs to a
	// password account. Either way a matching user now exists; find it and
	// attach the identity.
	if user, err = l.users.FindByExternalID(ctx, profile.Provider, profile.ExternalID); err == nil {
		return l.refresh(ctx, user, profile, accessToken, refreshToken)
	}
	user, err = l.users.FindByEmail(ctx, strings.ToLower(profile.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conflicting external identity: %w", err)
	}
	user.Provider = &profile.Provider
	user.ExternalID = &profile.ExternalID
	return l.refresh(ctx, user, profile, accessToken, refreshToken)
}

func (l *OAuthIdentityLinker) refresh(ctx context.Context, user *models.User, profile Profile, accessToken, refreshToken string) (*models.User, error) {
	user.ExternalAccessToken = &accessToken
	user.ExternalRefreshToken = &refreshToken
	if len(profile.Raw) > 0 {
		user.ExternalProfile = datatypes.JSON(profile.Raw)
	}
	if err := l.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update external identity: %w", err)
	}
	return user, nil
}
