package ports

import (
	"context"

	"github.com/incuna/user-management/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Authenticate resolves a bearer token to the current user record.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}
