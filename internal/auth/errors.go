package auth

import (
	"errors"
	"fmt"
)

// Expected outcomes are returned as sentinel errors and compared with
// errors.Is by the transport layer. Anything not in this list is treated
// as an internal failure.
var (
	// Repository-level.
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")

	// Credential flows.
	ErrEmailTaken            = errors.New("email already registered")
	ErrUserNotFound          = errors.New("user not found")
	ErrWrongPassword         = errors.New("wrong password")
	ErrEmailNotFound         = errors.New("e-mail does not exist")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrDeliveryFailed        = errors.New("failed to send email")

	// Session tokens. Callers must distinguish these: expired means the
	// client should refresh, invalid means re-login.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// ValidationError names the input rule the caller violated. It is raised
// before any persistence happens.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Rule)
}
