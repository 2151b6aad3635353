package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekinyurt/auth-service/internal/auth"
	"github.com/ekinyurt/auth-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is the Postgres-backed auth.UserRepository. Uniqueness
// is enforced by the database indexes on email and (provider, external_id);
// violations surface as auth.ErrConflict.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err, "find user by email")
	}
	return &user, nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "find user by id")
	}
	return &user, nil
}

func (r *GormUserRepository) FindByExternalID(ctx context.Context, provider, externalID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("provider = ? AND external_id = ?", provider, externalID).
		First(&user).Error
	if err != nil {
		return nil, translate(err, "find user by external id")
	}
	return &user, nil
}

func (r *GormUserRepository) FindByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("reset_token_hash = ?", tokenHash).First(&user).Error
	if err != nil {
		return nil, translate(err, "find user by reset token")
	}
	return &user, nil
}

// Save inserts or updates the full record. Save(clause) rather than Updates
// so cleared pointer fields (reset token, expiry) are written as NULL.
func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.Returning{}).Save(user).Error
	if err != nil {
		return translate(err, "save user")
	}
	return nil
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return auth.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return auth.ErrConflict
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
