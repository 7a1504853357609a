package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/core/ports"
)

// AccountHandler serves the token-gated account actions.
type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register creates an inactive account and mails a verification link.
//
// @Summary      Register a new account
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorDoc
// @Failure      403   {object}  errorDoc
// @Router       /register [post]
func (h *AccountHandler) Register(c echo.Context) (err error) {
	defer observe("register", &err)

	if err := requireAnonymous(c); err != nil {
		return err
	}

	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registerResponse{Name: user.Name, Email: user.Email})
}

// RequestPasswordReset mails a reset link. The response does not reveal
// whether the address belongs to an account.
//
// @Summary      Request a password reset
// @Tags         account
// @Accept       json
// @Param        body  body  passwordResetRequest  true  "Account email"
// @Success      204
// @Failure      400   {object}  errorDoc
// @Failure      403   {object}  errorDoc
// @Router       /password_reset [post]
func (h *AccountHandler) RequestPasswordReset(c echo.Context) (err error) {
	defer observe("password_reset_request", &err)

	if err := requireAnonymous(c); err != nil {
		return err
	}

	var req passwordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ConfirmPasswordReset sets a new password from a mailed link.
//
// @Summary      Confirm a password reset
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        uid    path  string              true  "Encoded user id"
// @Param        token  path  string              true  "Reset token"
// @Param        body   body  setPasswordRequest  true  "New password"
// @Success      200    {object}  detailResponse
// @Failure      400    {object}  errorDoc
// @Failure      404    {object}  errorDoc
// @Router       /password_reset/confirm/{uid}/{token} [put]
func (h *AccountHandler) ConfirmPasswordReset(c echo.Context) (err error) {
	defer observe("password_reset_confirm", &err)

	ctx := c.Request().Context()
	if err = h.accounts.CheckResetLink(ctx, c.Param("uid"), c.Param("token")); err != nil {
		return err
	}

	var req setPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.accounts.ConfirmPasswordReset(ctx, c.Param("uid"), c.Param("token"), ports.SetPasswordInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detailResponse{Detail: "Your password has been reset."})
}

// ChangePassword replaces the caller's password.
//
// @Summary      Change password
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  detailResponse
// @Failure      400   {object}  errorDoc
// @Failure      401   {object}  errorDoc
// @Router       /password_change [put]
func (h *AccountHandler) ChangePassword(c echo.Context) (err error) {
	defer observe("password_change", &err)

	user, err := requireUser(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), user, ports.ChangePasswordInput(req)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detailResponse{Detail: "Your password has been changed."})
}

// VerifyEmail activates the account named in a mailed link. Any caller,
// signed in or not, may complete it.
//
// @Summary      Verify an email address
// @Tags         account
// @Produce      json
// @Param        uid    path  string  true  "Encoded user id"
// @Param        token  path  string  true  "Verification token"
// @Success      200    {object}  detailResponse
// @Failure      403    {object}  errorDoc
// @Failure      404    {object}  errorDoc
// @Router       /verify/{uid}/{token} [post]
func (h *AccountHandler) VerifyEmail(c echo.Context) (err error) {
	defer observe("verify_email", &err)

	if err := h.accounts.VerifyEmail(c.Request().Context(), c.Param("uid"), c.Param("token")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detailResponse{Detail: "Your email address has been verified."})
}
