package keygen

import (
	"path"

	"github.com/google/uuid"
)

// AvatarPrefix is the object key prefix for uploaded avatars
const AvatarPrefix = "avatars"

// NewID returns a new random record identifier
func NewID() string {
	return uuid.New().String()
}

// AvatarKey returns a fresh object key for an avatar owned by userID.
// Keys never repeat, so an upload never overwrites an older avatar still
// referenced by a trade post snapshot.
func AvatarKey(userID string) string {
	return path.Join(AvatarPrefix, userID, uuid.New().String())
}

// IsAvatarKey reports whether key has the shape produced by AvatarKey
func IsAvatarKey(key string) bool {
	if path.Clean(key) != key {
		return false
	}
	dir, file := path.Split(key)
	owner := path.Base(path.Clean(dir))
	if path.Dir(path.Clean(dir)) != AvatarPrefix || owner == "" {
		return false
	}
	_, err := uuid.Parse(file)
	return err == nil
}
