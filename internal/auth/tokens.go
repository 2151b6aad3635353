package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Session is the verified content of a token: who, and until when.
type Session struct {
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// TokenPair carries both tokens plus the access token's expiry so the
// transport layer can set cookie lifetimes.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenIssuer mints and verifies HS256-signed session tokens. It holds no
// mutable state beyond the signing key injected at construction, so it is
// safe for concurrent use and side-effect free.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (i *TokenIssuer) IssueAccessToken(userID uuid.UUID) (string, error) {
	return i.sign(userID, tokenTypeAccess, i.accessTTL)
}

func (i *TokenIssuer) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return i.sign(userID, tokenTypeRefresh, i.refreshTTL)
}

// IssuePair mints an access and refresh token for the same subject.
func (i *TokenIssuer) IssuePair(userID uuid.UUID) (*TokenPair, error) {
	access, err := i.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := i.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(i.accessTTL),
	}, nil
}

// Verify validates an access token and returns its session. Expired tokens
// fail with ErrTokenExpired; everything else wrong with the token (bad
// signature, wrong type, malformed claims) fails with ErrTokenInvalid.
func (i *TokenIssuer) Verify(token string) (*Session, error) {
	return i.parse(token, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token. Access tokens are rejected so a
// short-lived token can never be replayed as a refresh grant.
func (i *TokenIssuer) VerifyRefresh(token string) (*Session, error) {
	return i.parse(token, tokenTypeRefresh)
}

func (i *TokenIssuer) sign(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"typ": tokenType,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (i *TokenIssuer) parse(tokenString, wantType string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	if typ, _ := claims["typ"].(string); typ != wantType {
		return nil, ErrTokenInvalid
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrTokenInvalid
	}

	return &Session{UserID: userID, ExpiresAt: exp.Time}, nil
}
