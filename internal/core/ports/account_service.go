package ports

import (
	"context"

	"github.com/incuna/user-management/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Password2 string
}

// SetPasswordInput carries a new password and its confirmation.
type SetPasswordInput struct {
	NewPassword  string
	NewPassword2 string
}

// ChangePasswordInput carries a password change for an authenticated user.
type ChangePasswordInput struct {
	OldPassword  string
	NewPassword  string
	NewPassword2 string
}

// AccountService runs the token-gated account actions. Capability checks
// (anonymous-only, authenticated) belong to the caller.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	// CheckResetLink fails with domain.ErrNotFound unless uid and token
	// name a live reset link.
	CheckResetLink(ctx context.Context, uid, token string) error
	ConfirmPasswordReset(ctx context.Context, uid, token string, in SetPasswordInput) error
	ChangePassword(ctx context.Context, user *domain.User, in ChangePasswordInput) error
	VerifyEmail(ctx context.Context, uid, token string) error
}

// TokenGenerator issues and validates fingerprint-bound action tokens.
type TokenGenerator interface {
	Issue(user *domain.User) string
	Validate(token string, user *domain.User) bool
}
