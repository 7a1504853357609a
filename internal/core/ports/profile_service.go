package ports

import (
	"context"
	"io"

	"github.com/incuna/user-management/internal/core/domain"
)

// ProfileUpdate holds optional profile changes; nil means unchanged.
type ProfileUpdate struct {
	Name *string
}

type ProfileService interface {
	UpdateProfile(ctx context.Context, user *domain.User, in ProfileUpdate) (*domain.User, error)
}

// AvatarUpload is an avatar file already read from the request.
type AvatarUpload struct {
	Filename string
	Content  io.Reader
	Size     int64
}

type AvatarService interface {
	// AvatarURL returns "" when the user has no avatar.
	AvatarURL(ctx context.Context, user *domain.User) (string, error)
	Upload(ctx context.Context, user *domain.User, in AvatarUpload) (string, error)
	// ThumbnailURL returns the original URL when width and height are both
	// zero, and "" when the user has no avatar.
	ThumbnailURL(ctx context.Context, user *domain.User, width, height int) (string, error)
}

// BlobStorage stores avatar originals and their resized variants.
type BlobStorage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}
