package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/core/domain"
)

var errInvalidPayload = echo.NewHTTPError(http.StatusBadRequest, "invalid payload")

// --- Account ---

type registerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type registerResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type setPasswordRequest struct {
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password2"`
}

type changePasswordRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password2"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// --- Profile & avatar ---

type profileRequest struct {
	Name *string `json:"name"`
}

type profileResponse struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	DateJoined time.Time `json:"date_joined"`
}

type avatarResponse struct {
	Avatar *string `json:"avatar"`
}

type thumbnailQuery struct {
	Width  int `query:"width" validate:"min=0,max=2048"`
	Height int `query:"height" validate:"min=0,max=2048"`
}

type thumbnailResponse struct {
	Thumbnail *string `json:"thumbnail"`
}

// --- Users ---

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type userResponse struct {
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	DateJoined time.Time `json:"date_joined"`
}

// --- Mappers ---

func toProfileResponse(u *domain.User) profileResponse {
	return profileResponse{Name: u.Name, Email: u.Email, DateJoined: u.DateJoined}
}

func toUserResponse(c echo.Context, u *domain.User) userResponse {
	return userResponse{
		URL:        userURL(c, u.ID),
		Name:       u.Name,
		Email:      u.Email,
		DateJoined: u.DateJoined,
	}
}

// userURL builds the absolute detail URL from the request's scheme and host.
func userURL(c echo.Context, id int64) string {
	return c.Scheme() + "://" + c.Request().Host + "/users/" + strconv.FormatInt(id, 10)
}

// nullable maps "" to a JSON null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// errorDoc documents the error envelope rendered by the API error handler.
type errorDoc struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}
