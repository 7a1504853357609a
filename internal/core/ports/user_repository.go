package ports

import (
	"context"

	"github.com/incuna/user-management/internal/core/domain"
)

// UserRepository is the credential store. Implementations must treat email
// uniqueness case-insensitively and apply each mutation atomically per record.
type UserRepository interface {
	// Create assigns the next numeric id and inserts the user. Returns
	// domain.ErrUserExists when the email is already taken in any case.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByEmail matches case-insensitively. Returns domain.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Update persists name, email, staff flag and avatar.
	Update(ctx context.Context, user *domain.User) error
	SetPassword(ctx context.Context, id int64, hash string) error
	// MarkVerified sets verified_email and is_active in one write.
	MarkVerified(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
