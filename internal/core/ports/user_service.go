package ports

import (
	"context"

	"github.com/incuna/user-management/internal/core/domain"
)

// CreateUserInput is the admin create form.
type CreateUserInput struct {
	Name  string
	Email string
}

// UserUpdate holds optional admin edits; nil means unchanged.
type UserUpdate struct {
	Name  *string
	Email *string
}

// UserService backs the admin user endpoints. Staff checks are done by the
// handler.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, id int64, in UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
