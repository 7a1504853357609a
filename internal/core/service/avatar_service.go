package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

const (
	defaultMaxAvatarBytes = 5 << 20
	MaxThumbnailSide      = 2048
)

// avatarTypes maps sniffed content types to the stored file extension.
var avatarTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
}

const invalidImageMsg = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// ImageResizer produces a PNG variant of an image scaled to fit width x
// height. A zero side is derived from the other keeping the aspect ratio.
// Both methods report unusable input with domain.ErrInvalidImage or
// domain.ErrImageTooLarge.
type ImageResizer interface {
	Check(src io.Reader) error
	Thumbnail(src io.Reader, width, height int) ([]byte, error)
}

type AvatarService struct {
	users    ports.UserRepository
	storage  ports.BlobStorage
	resizer  ImageResizer
	maxBytes int64
	log      zerolog.Logger
}

func NewAvatarService(users ports.UserRepository, storage ports.BlobStorage, resizer ImageResizer, maxBytes int64, log zerolog.Logger) *AvatarService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxAvatarBytes
	}
	return &AvatarService{users: users, storage: storage, resizer: resizer, maxBytes: maxBytes, log: log}
}

func (s *AvatarService) AvatarURL(ctx context.Context, user *domain.User) (string, error) {
	if user.Avatar == "" {
		return "", nil
	}
	return s.storage.URL(ctx, user.Avatar)
}

// Upload stores a new avatar for user and drops the previous one.
func (s *AvatarService) Upload(ctx context.Context, user *domain.User, in ports.AvatarUpload) (string, error) {
	if in.Content == nil {
		return "", domain.FieldError("avatar", "No file was submitted.")
	}

	data, err := io.ReadAll(io.LimitReader(in.Content, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(data) == 0 {
		return "", domain.FieldError("avatar", "The submitted file is empty.")
	}
	if int64(len(data)) > s.maxBytes {
		return "", domain.FieldError("avatar", fmt.Sprintf("File too large: maximum size is %d MB.", s.maxBytes>>20))
	}

	contentType := http.DetectContentType(data)
	ext, ok := avatarTypes[contentType]
	if !ok {
		return "", domain.FieldError("avatar", invalidImageMsg)
	}
	if err := s.resizer.Check(bytes.NewReader(data)); err != nil {
		return "", imageError(err)
	}

	key := "avatars/" + uuid.NewString() + ext
	if err := s.storage.Save(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	previous := user.Avatar
	updated := *user
	updated.Avatar = key
	if err := s.users.Update(ctx, &updated); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Error().Err(delErr).Str("key", key).Msg("failed to clean up avatar after update error")
		}
		return "", fmt.Errorf("save avatar reference: %w", err)
	}
	user.Avatar = key

	if previous != "" {
		if err := s.storage.Delete(ctx, previous); err != nil {
			s.log.Warn().Err(err).Str("key", previous).Msg("failed to delete previous avatar")
		}
	}

	s.log.Info().Int64("user_id", user.ID).Str("key", key).Msg("avatar uploaded")
	return s.storage.URL(ctx, key)
}

// ThumbnailURL returns the URL of a resized avatar, generating it on first
// request.
func (s *AvatarService) ThumbnailURL(ctx context.Context, user *domain.User, width, height int) (string, error) {
	ve := domain.NewValidationError()
	checkSide(ve, "width", width)
	checkSide(ve, "height", height)
	if err := ve.OrNil(); err != nil {
		return "", err
	}

	if user.Avatar == "" {
		return "", nil
	}
	if width == 0 && height == 0 {
		return s.storage.URL(ctx, user.Avatar)
	}

	key := thumbnailKey(user.Avatar, width, height)
	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("check thumbnail: %w", err)
	}
	if !exists {
		if err := s.renderThumbnail(ctx, user.Avatar, key, width, height); err != nil {
			return "", err
		}
	}
	return s.storage.URL(ctx, key)
}

func (s *AvatarService) renderThumbnail(ctx context.Context, source, key string, width, height int) error {
	src, err := s.storage.Open(ctx, source)
	if err != nil {
		return fmt.Errorf("open avatar: %w", err)
	}
	defer func() { _ = src.Close() }()

	png, err := s.resizer.Thumbnail(src, width, height)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidImage) || errors.Is(err, domain.ErrImageTooLarge) {
			s.log.Warn().Err(err).Str("key", source).Msg("stored avatar cannot be thumbnailed")
			return imageError(err)
		}
		return fmt.Errorf("resize avatar: %w", err)
	}
	if err := s.storage.Save(ctx, key, bytes.NewReader(png), "image/png"); err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}

	s.log.Debug().Str("key", key).Msg("thumbnail generated")
	return nil
}

// thumbnailKey derives a stable key per avatar and size:
// avatars/abc.png at 10x0 -> thumbnails/abc_10x0.png.
func thumbnailKey(avatar string, width, height int) string {
	base := strings.TrimSuffix(path.Base(avatar), path.Ext(avatar))
	return fmt.Sprintf("thumbnails/%s_%dx%d.png", base, width, height)
}

// imageError turns unusable image input into an avatar field error and
// returns anything else unchanged.
func imageError(err error) error {
	switch {
	case errors.Is(err, domain.ErrImageTooLarge):
		return domain.FieldError("avatar", "Image dimensions are too large.")
	case errors.Is(err, domain.ErrInvalidImage):
		return domain.FieldError("avatar", invalidImageMsg)
	}
	return err
}

func checkSide(ve *domain.ValidationError, field string, v int) {
	if v < 0 || v > MaxThumbnailSide {
		ve.Add(field, fmt.Sprintf("Ensure this value is between 0 and %d.", MaxThumbnailSide))
	}
}
