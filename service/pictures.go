package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// DefaultProfilePicture is served when a user has no stored picture.
const DefaultProfilePicture = "/images/profiles/default.png"

const profilePrefix = "profiles/"

// allowed profile-picture content types mapped to object extensions.
var pictureExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PictureService associates one uploaded image per user and resolves its
// display path, falling back to the default asset.
type PictureService struct {
	users    UserRepo
	objects  ObjectStore
	maxBytes int64
	log      *zap.SugaredLogger
}

func NewPictureService(users UserRepo, objects ObjectStore, maxBytes int64, log *zap.SugaredLogger) *PictureService {
	return &PictureService{users: users, objects: objects, maxBytes: maxBytes, log: log}
}

// UpdatePicture stores the image keyed by username, overwriting any prior
// picture, and persists the path on the user. Returns false when no file
// was supplied, the content type is not an allowed image type, or the file
// exceeds the size cap.
func (s *PictureService) UpdatePicture(ctx context.Context, file io.Reader, size int64, contentType, username string) (bool, error) {
	if file == nil || size == 0 {
		return false, nil
	}
	ext, ok := pictureExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return false, nil
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return false, nil
	}
	if s.objects == nil {
		return false, fmt.Errorf("object storage not configured")
	}
	user, err := s.users.ByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}
	key := profilePrefix + strings.ToLower(username) + ext
	if err := s.objects.Put(ctx, key, file, contentType); err != nil {
		return false, err
	}
	// The extension can change between uploads; drop the old object so the
	// user never has two pictures stored.
	if user.ProfilePicturePath != "" && user.ProfilePicturePath != key {
		if err := s.objects.Delete(ctx, user.ProfilePicturePath); err != nil {
			s.log.Errorw("delete previous profile picture", "user", username, "err", err)
		}
	}
	if err := s.users.SetProfilePicturePath(ctx, user.ID, key); err != nil {
		return false, err
	}
	return true, nil
}

// ResolvePath returns the stored picture path for the user, or the default
// asset path when none is set (or the user is unknown).
func (s *PictureService) ResolvePath(ctx context.Context, username string) string {
	user, err := s.users.ByUsername(ctx, username)
	if err != nil {
		s.log.Errorw("resolve profile picture", "user", username, "err", err)
		return DefaultProfilePicture
	}
	if user == nil || user.ProfilePicturePath == "" {
		return DefaultProfilePicture
	}
	return user.ProfilePicturePath
}
