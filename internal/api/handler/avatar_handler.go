package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

const avatarField = "avatar"

type AvatarHandler struct {
	avatars ports.AvatarService
}

func NewAvatarHandler(avatars ports.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatars: avatars}
}

// Get returns the URL of the caller's avatar, or null.
//
// @Summary      Get own avatar
// @Tags         avatar
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  avatarResponse
// @Failure      401  {object}  errorDoc
// @Router       /avatar [get]
func (h *AvatarHandler) Get(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	url, err := h.avatars.AvatarURL(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, avatarResponse{Avatar: nullable(url)})
}

// Put uploads a new avatar image (png, jpeg or gif).
//
// @Summary      Upload own avatar
// @Tags         avatar
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Image file"
// @Success      200     {object}  avatarResponse
// @Failure      400     {object}  errorDoc
// @Failure      401     {object}  errorDoc
// @Router       /avatar [put]
func (h *AvatarHandler) Put(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(avatarField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return domain.FieldError(avatarField, "No file was submitted.")
		}
		return errInvalidPayload
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	url, err := h.avatars.Upload(c.Request().Context(), user, ports.AvatarUpload{
		Filename: fh.Filename,
		Content:  f,
		Size:     fh.Size,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, avatarResponse{Avatar: nullable(url)})
}

// Thumbnail returns the URL of a resized avatar. Without width and height
// it returns the original.
//
// @Summary      Get own avatar thumbnail
// @Tags         avatar
// @Produce      json
// @Security     BearerAuth
// @Param        width   query     int  false  "Width in pixels (1-2048)"
// @Param        height  query     int  false  "Height in pixels (1-2048)"
// @Success      200     {object}  thumbnailResponse
// @Failure      400     {object}  errorDoc
// @Failure      401     {object}  errorDoc
// @Router       /avatar/thumbnail [get]
func (h *AvatarHandler) Thumbnail(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	var q thumbnailQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	url, err := h.avatars.ThumbnailURL(c.Request().Context(), user, q.Width, q.Height)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, thumbnailResponse{Thumbnail: nullable(url)})
}
