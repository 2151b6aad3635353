package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerVerifyReturnsSubject(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	token, err := issuer.IssueAccessToken(userID)
	require.NoError(t, err)

	session, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)
}

func TestTokenIssuerExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute, 24*time.Hour)

	token, err := issuer.IssueAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuerInvalid(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)

	_, err := issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// Signed with a different key.
	other := NewTokenIssuer("other-secret", time.Hour, 24*time.Hour)
	token, err := other.IssueAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIssuerRejectsWrongTokenType(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	access, err := issuer.IssueAccessToken(userID)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefreshToken(userID)
	require.NoError(t, err)

	_, err = issuer.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.Verify(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	session, err := issuer.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
}

func TestTokenIssuerIssuePair(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	userID := uuid.New()

	pair, err := issuer.IssuePair(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	session, err := issuer.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
}
