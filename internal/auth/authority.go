package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ekinyurt/auth-service/internal/models"
	"github.com/google/uuid"
)

// CredentialAuthority orchestrates the credential and session flows against
// a UserRepository. Each flow is stateless request-scoped logic; the only
// process-wide state is the signing key inside the token issuer.
type CredentialAuthority struct {
	users    UserRepository
	hasher   *SecretHasher
	tokens   *TokenIssuer
	resets   *ResetTokenManager
	linker   *OAuthIdentityLinker
	notifier Notifier
	baseURL  string
}

func NewCredentialAuthority(
	users UserRepository,
	hasher *SecretHasher,
	tokens *TokenIssuer,
	resets *ResetTokenManager,
	linker *OAuthIdentityLinker,
	notifier Notifier,
	baseURL string,
) *CredentialAuthority {
	return &CredentialAuthority{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		resets:   resets,
		linker:   linker,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Signup validates the input, rejects taken emails and persists a new user
// with a hashed password. Validation runs before any persistence.
func (a *CredentialAuthority) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &ValidationError{Field: "email", Rule: "must not be empty"}
	}

	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	digest, err := a.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: &digest,
	}
	if err := a.users.Save(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Signin verifies the password and returns a fresh token pair. Lookup and
// credential failures are reported separately, matching the upstream
// contract.
func (a *CredentialAuthority) Signin(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := a.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// Provider-only accounts have no password; treat the attempt as a
	// mismatch rather than revealing how the account authenticates.
	if !user.HasPassword() || !a.hasher.Verify(password, *user.PasswordHash) {
		return nil, ErrWrongPassword
	}

	return a.tokens.IssuePair(user.ID)
}

// Signout is stateless: tokens stay valid until their natural expiry and
// the caller discards its session transport. There is no server-side
// session table to invalidate.
func (a *CredentialAuthority) Signout() {}

// Refresh trades a valid refresh token for a new pair. The subject must
// still exist.
func (a *CredentialAuthority) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	session, err := a.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := a.users.FindByID(ctx, session.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return a.tokens.IssuePair(session.UserID)
}

// ForgotPassword issues a reset token and mails the reset link. If delivery
// fails after the token persisted, the pending token is cleared again so no
// unusable grant dangles.
func (a *CredentialAuthority) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrEmailNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	rawToken, err := a.resets.Issue(ctx, user)
	if err != nil {
		return err
	}

	resetURL := a.baseURL + "/resetpassword/" + rawToken
	body := "Click the following link to reset your password: \n\n" + resetURL

	if err := a.notifier.Send(ctx, user.Email, "Reset Password", body); err != nil {
		slog.Error("reset mail delivery failed", "user_id", user.ID, "error", err)
		if clearErr := a.resets.Clear(ctx, user); clearErr != nil {
			slog.Error("failed to clear pending reset token", "user_id", user.ID, "error", clearErr)
		}
		return ErrDeliveryFailed
	}
	return nil
}

// ResetPassword redeems a reset token against the new password.
func (a *CredentialAuthority) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	return a.resets.Consume(ctx, rawToken, newPassword)
}

// EmailExists reports whether an account with this email is registered.
func (a *CredentialAuthority) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := a.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check email: %w", err)
}

// OAuthCallback links the asserted identity to a local account and treats
// the result like a successful signin.
func (a *CredentialAuthority) OAuthCallback(ctx context.Context, profile Profile, accessToken, refreshToken string) (*TokenPair, error) {
	user, err := a.linker.Resolve(ctx, profile, accessToken, refreshToken)
	if err != nil {
		return nil, err
	}
	return a.tokens.IssuePair(user.ID)
}

// VerifySession validates an access token and returns its subject.
func (a *CredentialAuthority) VerifySession(token string) (*Session, error) {
	return a.tokens.Verify(token)
}

func validateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Rule: "must not be empty"}
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' {
			return &ValidationError{Field: "name", Rule: "must contain only alphabets and spaces"}
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Rule: "must be at least 8 characters"}
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	switch {
	case !upper:
		return &ValidationError{Field: "password", Rule: "must contain at least one uppercase letter"}
	case !lower:
		return &ValidationError{Field: "password", Rule: "must contain at least one lowercase letter"}
	case !digit:
		return &ValidationError{Field: "password", Rule: "must contain at least one number"}
	case !symbol:
		return &ValidationError{Field: "password", Rule: "must contain at least one special character"}
	}
	return nil
}
