package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/tradehub/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles user data access.
// Writes are serialized so that the uniqueness check and the insert
// cannot interleave with another registration in this process; the
// unique indexes on the lower-cased columns cover other processes.
type UserRepository struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user after checking case-insensitive uniqueness of
// username and email. Returns ErrUsernameExists or ErrEmailExists.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.UsernameLower = strings.ToLower(user.Username)
	user.EmailLower = strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUnique(tx, user); err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race against another process; report which key collided
		if uerr := checkUnique(r.db.WithContext(ctx), user); uerr != nil {
			return uerr
		}
	}
	return err
}

func checkUnique(tx *gorm.DB, user *models.User) error {
	var count int64
	if err := tx.Model(&models.User{}).
		Where("username_lower = ?", user.UsernameLower).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUsernameExists
	}

	if err := tx.Model(&models.User{}).
		Where("email_lower = ?", user.EmailLower).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailExists
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// GetByUsername retrieves a user by username, ignoring case
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("username_lower = ?", strings.ToLower(username)).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// List retrieves all users in registration order
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	result := r.db.WithContext(ctx).Order("created_at ASC").Find(&users)
	return users, result.Error
}

// SetOnline updates the online flag of a user
func (r *UserRepository) SetOnline(ctx context.Context, id string, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_online", online)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateStats merges a partial stats update and returns the updated user
func (r *UserRepository) UpdateStats(ctx context.Context, id string, patch models.StatsPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		patch.Apply(&user.Stats)

		return tx.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"stats_total_trades":      user.Stats.TotalTrades,
			"stats_successful_trades": user.Stats.SuccessfulTrades,
			"stats_rating":            user.Stats.Rating,
			"stats_total_reviews":     user.Stats.TotalReviews,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAvatar sets the avatar URI of a user
func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatar string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("avatar", avatar)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteAll removes every user
func (r *UserRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.User{}).Error
}
