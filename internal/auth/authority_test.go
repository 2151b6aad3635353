package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthority(t *testing.T) (*CredentialAuthority, *fakeUserRepo, *recordingNotifier) {
	t.Helper()
	repo := newFakeUserRepo()
	hasher := NewSecretHasher()
	issuer := NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	resets := NewResetTokenManager(repo, hasher, time.Hour)
	linker := NewOAuthIdentityLinker(repo)
	notifier := &recordingNotifier{}
	authority := NewCredentialAuthority(repo, hasher, issuer, resets, linker, notifier, "http://localhost:8080")
	return authority, repo, notifier
}

func TestSignupValidation(t *testing.T) {
	authority, repo, _ := newTestAuthority(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		userName string
		password string
		rule     string
	}{
		{"name with digits", "Jo2", "Strong1!", "alphabets"},
		{"short password", "Jo", "S1!a", "at least 8 characters"},
		{"no symbol", "Jo", "Weak1weak", "special character"},
		{"no upper", "Jo", "weak1weak!", "uppercase"},
		{"no lower", "Jo", "WEAK1WEAK!", "lowercase"},
		{"no digit", "Jo", "Weakweak!", "number"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := authority.Signup(ctx, tc.userName, "jo@x.com", tc.password)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Rule, tc.rule)
		})
	}

	// Nothing persisted on validation failure.
	assert.Equal(t, 0, repo.count())
}

func TestSignupPersistsHashedPassword(t *testing.T) {
	authority, repo, _ := newTestAuthority(t)
	ctx := context.Background()

	user, err := authority.Signup(ctx, "Jo", "Jo@X.com", "Strong1!")
	require.NoError(t, err)

	assert.Equal(t, "jo@x.com", user.Email)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "Strong1!", *user.PasswordHash)
	assert.True(t, strings.HasPrefix(*user.PasswordHash, "$2"))
	assert.Equal(t, 1, repo.count())
}

func TestSignupRejectsTakenEmail(t *testing.T) {
	authority, _, _ := newTestAuthority(t)
	ctx := context.Background()

	_, err := authority.Signup(ctx, "Jo", "jo@x.com", "Strong1!")
	require.NoError(t, err)

	_, err = authority.Signup(ctx, "Other Jo", "JO@X.COM", "Strong1!")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSigninIssuesTokenPair(t *testing.T) {
	authority, _, _ := newTestAuthority(t)
	ctx := context.Background()

	_, err := authority.Signup(ctx, "Jo", "jo@x.com", "Strong1!")
	require.NoError(t, err)

	pair, err := authority.Signin(ctx, "jo@x.com", "Strong1!")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	session, err := authority.VerifySession(pair.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, "", session.UserID.String())
}

func TestSigninWrongPassword(t *testing.T) {
	authority, _, _ := newTestAuthority(t)
	ctx := context.Background()

	_, err := authority.Signup(ctx, "Jo", "jo@x.com", "Strong1!")
	require.NoError(t, err)

	pair, err := authority.Signin(ctx, "jo@x.com", "Strong2!")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Nil(t, pair)
}

func TestSigninUnknownEmail(t *testing.T) {
	authority, _, _ := newTestAuthority(t)

	pair, err := authority.Signin(context.Background(), "nobody@x.com", "Strong1!")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, pair)
}

func TestSigninRejectsProviderOnlyAccount(t *testing.T) {
	authority, _, _ := newTestAuthority(t)
	ctx := context.Background()

	_, err := authority.OAuthCallback(ctx, googleProfile(), "access", "refresh")
	require.NoError(t, err)

	_, err = authority.Signin(ctx, "jo@x.com", "Strong1!")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestRefreshRotatesPair(t *testing.T) {
	authority, _, _ := newTestAuthority(t)
	ctx := context.Background()

	_, err := authority.Signup(ctx, "Jo", "jo@x.com", "Strong1!")
	require.NoError(t, err)
	pair, err := authority.Signin(ctx, "jo@x.com", "Strong1!")
	require.NoError(t, err)

	fresh, err := authority.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	// An access token is not a refresh grant.
	_, err = authority.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	authority, repo, notifier := newTestAuthority(t)

	err := authority.ForgotPassword(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrEmailNotFound)
	assert.Equal(t, 0, notifier.sentCount())
	assert.Equal(t, 0, repo.count())
}

func TestForgotPasswordSendsResetLink(t *testing.T) {
	authority, repo, notifier := newTestAuthority(t)
	ctx := context.Background()

	user, err := authority.Signup(ctx, "Jo", "jo@x.com", "Strong1!")
	require.NoError(t, err)

	require.NoError(t, authority.ForgotPassword(ctx, "jo@x.com"))
	require.Equal(t, 1, notifier.sentCount())

	mail := notifier.sent[0]
	assert.Equal(t, "jo@x.com", mail.to)
	assert.Equal(t, "Reset Password", mail.subject)
	assert.Contains(t, mail.body, "http://localhost:8080/resetpassword/")

	// The mailed plaintext must verify against the stored hash.
	link := mail.body[strings.Index(mail.body, "http://"):]
	raw := link[strings.LastIndex(link, "/")+1:]
	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, HashResetToken(raw), *stored.ResetTokenHash)
}

func TestForgotPasswordClearsTokenOnDeliveryFailure(t *testing.T) {
	authority, repo, notifier := newTestAuthority(t)
	ctx := context.Background()

	user, err := authority.Signup(ctx, "Jo", "jo@x.com", "Strong1!")
	require.NoError(t, err)

	notifier.failWith = errors.New("smtp down")
	err = authority.ForgotPassword(ctx, "jo@x.com")
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	// No dangling grant after the compensating clear.
	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiry)
}

func TestResetPasswordEndToEnd(t *testing.T) {
	authority, _, notifier := newTestAuthority(t)
	ctx := context.Background()

	_, err := authority.Signup(ctx, "Jo", "jo@x.com", "Strong1!")
	require.NoError(t, err)
	require.NoError(t, authority.ForgotPassword(ctx, "jo@x.com"))

	body := notifier.sent[0].body
	raw := body[strings.LastIndex(body, "/")+1:]

	// New password must pass the same policy as signup.
	err = authority.ResetPassword(ctx, raw, "weak")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, authority.ResetPassword(ctx, raw, "Fresh1!pass"))

	_, err = authority.Signin(ctx, "jo@x.com", "Strong1!")
	assert.ErrorIs(t, err, ErrWrongPassword)
	pair, err := authority.Signin(ctx, "jo@x.com", "Fresh1!pass")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	// One-time: the consumed token is dead.
	err = authority.ResetPassword(ctx, raw, "Another1!pass")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestEmailExists(t *testing.T) {
	authority, _, _ := newTestAuthority(t)
	ctx := context.Background()

	exists, err := authority.EmailExists(ctx, "jo@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = authority.Signup(ctx, "Jo", "jo@x.com", "Strong1!")
	require.NoError(t, err)

	exists, err = authority.EmailExists(ctx, "JO@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOAuthCallbackIssuesSession(t *testing.T) {
	authority, repo, _ := newTestAuthority(t)
	ctx := context.Background()

	pair, err := authority.OAuthCallback(ctx, googleProfile(), "access-1", "refresh-1")
	require.NoError(t, err)

	session, err := authority.VerifySession(pair.AccessToken)
	require.NoError(t, err)

	user, err := repo.FindByID(ctx, session.UserID)
	require.NoError(t, err)
	require.NotNil(t, user.ExternalID)
	assert.Equal(t, "108123456789", *user.ExternalID)
}

func TestVerifySessionExpired(t *testing.T) {
	repo := newFakeUserRepo()
	hasher := NewSecretHasher()
	issuer := NewTokenIssuer("test-secret", -time.Minute, 24*time.Hour)
	authority := NewCredentialAuthority(
		repo, hasher, issuer,
		NewResetTokenManager(repo, hasher, time.Hour),
		NewOAuthIdentityLinker(repo),
		&recordingNotifier{}, "http://localhost:8080",
	)

	token, err := issuer.IssueAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = authority.VerifySession(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = authority.VerifySession("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
