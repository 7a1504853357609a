package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

// ProfileHandler serves the caller's own profile. Email and date joined are
// read-only here.
type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get returns the caller's profile.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorDoc
// @Router       /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(user))
}

// Put replaces the editable profile fields. name is required.
//
// @Summary      Replace own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorDoc
// @Failure      401   {object}  errorDoc
// @Router       /profile [put]
func (h *ProfileHandler) Put(c echo.Context) error {
	return h.update(c, true)
}

// Patch updates the given profile fields.
//
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile fields"
// @Success      200   {object}  profileResponse
// @Failure      400   {object}  errorDoc
// @Failure      401   {object}  errorDoc
// @Router       /profile [patch]
func (h *ProfileHandler) Patch(c echo.Context) error {
	return h.update(c, false)
}

func (h *ProfileHandler) update(c echo.Context, full bool) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if full && req.Name == nil {
		return domain.FieldError("name", "This field is required.")
	}

	updated, err := h.profiles.UpdateProfile(c.Request().Context(), user, ports.ProfileUpdate{Name: req.Name})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(updated))
}
