package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/repository"
	"github.com/tradehub/internal/storage"
	"github.com/tradehub/pkg/keygen"
)

// AvatarURLPrefix is the public path avatars are served under
const AvatarURLPrefix = "/api/avatars/"

var avatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// UserService handles user profiles
type UserService struct {
	userRepo       *repository.UserRepository
	avatars        storage.AvatarStore
	maxAvatarBytes int64
}

// NewUserService creates a new UserService. avatars may be nil when object
// storage is disabled.
func NewUserService(userRepo *repository.UserRepository, avatars storage.AvatarStore, maxAvatarBytes int64) *UserService {
	return &UserService{
		userRepo:       userRepo,
		avatars:        avatars,
		maxAvatarBytes: maxAvatarBytes,
	}
}

// List returns every user in registration order
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateStats applies a partial stats update
func (s *UserService) UpdateStats(ctx context.Context, id string, patch models.StatsPatch) (*models.User, error) {
	if err := validateStats(patch); err != nil {
		return nil, err
	}
	return s.userRepo.UpdateStats(ctx, id, patch)
}

func validateStats(p models.StatsPatch) error {
	if p.IsEmpty() {
		return invalid("No stats provided")
	}
	for _, n := range []*int{p.TotalTrades, p.SuccessfulTrades, p.TotalReviews} {
		if n != nil && *n < 0 {
			return invalid("Trade and review counts must not be negative")
		}
	}
	if p.Rating != nil && (math.IsNaN(*p.Rating) || *p.Rating < 0 || *p.Rating > 5) {
		return invalid("Rating must be between 0 and 5")
	}
	return nil
}

// AvatarsEnabled reports whether avatar uploads are available
func (s *UserService) AvatarsEnabled() bool {
	return s.avatars != nil
}

// MaxAvatarBytes is the largest accepted avatar upload
func (s *UserService) MaxAvatarBytes() int64 {
	return s.maxAvatarBytes
}

// UploadAvatar stores a new avatar image and points the user's profile at it.
// The image type is sniffed from the data, not taken from the client.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, data []byte) (*models.User, error) {
	if s.avatars == nil {
		return nil, ErrStorageDisabled
	}
	if len(data) == 0 {
		return nil, invalid("Avatar image is empty")
	}
	if int64(len(data)) > s.maxAvatarBytes {
		return nil, invalid(fmt.Sprintf("Avatar must be at most %d bytes", s.maxAvatarBytes))
	}

	contentType := http.DetectContentType(data)
	if !avatarTypes[contentType] {
		return nil, invalid("Avatar must be a PNG, JPEG, GIF or WebP image")
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	key := keygen.AvatarKey(userID)
	if err := s.avatars.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	if err := s.userRepo.UpdateAvatar(ctx, userID, AvatarURLPrefix+key); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// OpenAvatar returns a stored avatar image. The caller closes the body.
func (s *UserService) OpenAvatar(ctx context.Context, key string) (*storage.Object, error) {
	if s.avatars == nil {
		return nil, ErrStorageDisabled
	}
	if !keygen.IsAvatarKey(key) {
		return nil, storage.ErrObjectNotFound
	}
	return s.avatars.Get(ctx, key)
}
