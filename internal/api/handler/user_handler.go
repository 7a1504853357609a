package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

// UserHandler serves the user directory. Any authenticated caller may read;
// only staff may write.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns every account.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      401  {object}  errorDoc
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}

	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(c, u))
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds an account without a usable password.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorDoc
// @Failure      401   {object}  errorDoc
// @Failure      403   {object}  errorDoc
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	if _, err := requireStaff(c); err != nil {
		return err
	}

	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.Request().Context(), ports.CreateUserInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toUserResponse(c, user))
}

// Get returns one account.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorDoc
// @Failure      404  {object}  errorDoc
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(c, user))
}

// Put replaces the editable fields of an account. name is required.
//
// @Summary      Replace a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "User fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorDoc
// @Failure      403   {object}  errorDoc
// @Failure      404   {object}  errorDoc
// @Router       /users/{id} [put]
func (h *UserHandler) Put(c echo.Context) error {
	return h.update(c, true)
}

// Patch updates the given fields of an account.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "User fields"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorDoc
// @Failure      403   {object}  errorDoc
// @Failure      404   {object}  errorDoc
// @Router       /users/{id} [patch]
func (h *UserHandler) Patch(c echo.Context) error {
	return h.update(c, false)
}

func (h *UserHandler) update(c echo.Context, full bool) error {
	if _, err := requireStaff(c); err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if full && req.Name == nil {
		return domain.FieldError("name", "This field is required.")
	}

	user, err := h.users.Update(c.Request().Context(), id, ports.UserUpdate(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(c, user))
}

// Delete removes an account.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  int  true  "User id"
// @Success      204
// @Failure      403  {object}  errorDoc
// @Failure      404  {object}  errorDoc
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if _, err := requireStaff(c); err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func userID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}
