package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is reachable through at least one auth path: a password hash, an
// external identity, or both. Reset token hash and expiry are set and
// cleared together; at most one reset token is outstanding per user.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name  string    `gorm:"size:255" json:"name"`

	// Absent for accounts that only ever signed in through a provider.
	PasswordHash      *string    `gorm:"size:255" json:"-"`
	PasswordChangedAt *time.Time `json:"-"`

	// External identity, unique per provider.
	Provider             *string        `gorm:"size:50;uniqueIndex:idx_users_provider_external_id" json:"-"`
	ExternalID           *string        `gorm:"size:255;uniqueIndex:idx_users_provider_external_id" json:"-"`
	ExternalAccessToken  *string        `gorm:"type:text" json:"-"`
	ExternalRefreshToken *string        `gorm:"type:text" json:"-"`
	ExternalProfile      datatypes.JSON `gorm:"type:jsonb" json:"-"`

	ResetTokenHash   *string    `gorm:"size:64;index" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasPassword reports whether password login is usable for this account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
